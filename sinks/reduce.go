package sinks

import (
	"context"
	"sync"

	"github.com/arielf-camacho/fanin/primitives"
)

// ReduceSink drains an Outlet, such as a multiplexed stream, reducing its
// values to a single value with the given reduce function.
//
// Graphically, the ReduceSink looks like this:
//
// -- 1 -- 2 -- 3 -- 4 -- 5 ------- | -->
//
// -- ReduceSink f(result, value, index) = result + value --
//
// -> ----------------------- 15 -- |
type ReduceSink[IN, OUT any] struct {
	ctx          context.Context
	mu           sync.RWMutex
	errorHandler func(error, uint, IN, OUT)
	fn           func(result OUT, value IN, index uint) (OUT, error)
	wg           sync.WaitGroup
	started      bool

	result OUT
}

// ReduceSinkBuilder is a fluent builder for ReduceSink.
type ReduceSinkBuilder[IN, OUT any] struct {
	fn           func(result OUT, value IN, index uint) (OUT, error)
	ctx          context.Context
	initial      OUT
	errorHandler func(error, uint, IN, OUT)
}

// Reduce creates a new ReduceSinkBuilder for building a ReduceSink.
func Reduce[IN, OUT any](
	fn func(result OUT, value IN, index uint) (OUT, error),
	initial OUT,
) *ReduceSinkBuilder[IN, OUT] {
	if fn == nil {
		panic("fn cannot be nil")
	}

	return &ReduceSinkBuilder[IN, OUT]{
		fn:      fn,
		initial: initial,
		ctx:     context.Background(),
	}
}

// Context sets the context for the ReduceSink.
func (b *ReduceSinkBuilder[IN, OUT]) Context(
	ctx context.Context,
) *ReduceSinkBuilder[IN, OUT] {
	b.ctx = ctx
	return b
}

// ErrorHandler sets the error handler for the ReduceSink. The sink stops
// reading after the first error.
func (b *ReduceSinkBuilder[IN, OUT]) ErrorHandler(
	handler func(error, uint, IN, OUT),
) *ReduceSinkBuilder[IN, OUT] {
	b.errorHandler = handler
	return b
}

// Build creates the ReduceSink.
func (b *ReduceSinkBuilder[IN, OUT]) Build() *ReduceSink[IN, OUT] {
	return &ReduceSink[IN, OUT]{
		fn:           b.fn,
		ctx:          b.ctx,
		errorHandler: b.errorHandler,
		result:       b.initial,
	}
}

// From starts draining the given outlet in the background. It panics if
// called more than once.
func (s *ReduceSink[IN, OUT]) From(
	from primitives.Outlet[IN],
) *ReduceSink[IN, OUT] {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		panic("ReduceSink is already draining, cannot be used again")
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.start(from.Out())

	return s
}

// Result returns the result (as of now) of the reduce operation.
func (s *ReduceSink[IN, OUT]) Result() OUT {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Wait waits for the ReduceSink to finish processing all values.
func (s *ReduceSink[IN, OUT]) Wait() error {
	s.wg.Wait()
	return nil
}

func (s *ReduceSink[IN, OUT]) start(in <-chan IN) {
	defer s.wg.Done()

	index := uint(0)

	for {
		select {
		case <-s.ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}

			result, err := s.accumulate(v, index)
			if err != nil {
				if s.errorHandler != nil {
					s.errorHandler(err, index, v, result)
				}
				return
			}

			index++
		}
	}
}

func (s *ReduceSink[IN, OUT]) accumulate(v IN, index uint) (OUT, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.fn(s.result, v, index)
	if err != nil {
		return s.result, err
	}

	s.result = result
	return result, nil
}
