package sources

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
)

var _ = primitives.Producer[any](&SliceSource[any]{})

// SliceSource is a producer that forwards the values of a given slice in
// order. If the context is cancelled, the SliceSource stops forwarding values.
//
// Graphically, the SliceSource looks like this:
//
//	SliceSource (1, 2, 3, 4, 5, ...)
//
// -- 1 -- 2 -- 3 -- 4 -- 5 -- | --> sink
type SliceSource[T any] struct {
	slice []T

	activated atomic.Bool
	ctx       context.Context
	logger    *zap.Logger
}

// SliceSourceBuilder is a fluent builder for SliceSource.
type SliceSourceBuilder[T any] struct {
	slice  []T
	ctx    context.Context
	logger *zap.Logger
}

// Slice creates a new SliceSourceBuilder for building a SliceSource.
func Slice[T any](slice []T) *SliceSourceBuilder[T] {
	return &SliceSourceBuilder[T]{
		slice:  slice,
		ctx:    context.Background(),
		logger: zap.NewNop(),
	}
}

// Context sets the context for the SliceSource.
func (b *SliceSourceBuilder[T]) Context(
	ctx context.Context,
) *SliceSourceBuilder[T] {
	b.ctx = ctx
	return b
}

// Logger sets the logger for the SliceSource.
func (b *SliceSourceBuilder[T]) Logger(
	logger *zap.Logger,
) *SliceSourceBuilder[T] {
	b.logger = logger
	return b
}

// Build creates the SliceSource.
func (b *SliceSourceBuilder[T]) Build() *SliceSource[T] {
	return &SliceSource[T]{
		slice:  b.slice,
		ctx:    b.ctx,
		logger: b.logger,
	}
}

// Forward sends the values of the slice to sink.
func (s *SliceSource[T]) Forward(sink primitives.Sender[T]) {
	s.assertNotActive()

	for i, v := range s.slice {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if err := sink.Send(v); err != nil {
			s.logger.Debug("Sink closed, stopping slice source",
				zap.Int("remaining", len(s.slice)-i),
				zap.Error(err))
			return
		}
	}
}

func (s *SliceSource[T]) assertNotActive() {
	if !s.activated.CompareAndSwap(false, true) {
		panic("SliceSource is already streaming, cannot be forwarded again")
	}
}
