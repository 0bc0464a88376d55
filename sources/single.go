package sources

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
)

var _ = primitives.Producer[any](&SingleSource[any]{})

// SingleSource is a producer that forwards a single value.
//
// Graphically, the SingleSource looks like this:
//
// ----------------------------- | -->
//
// -- SingleSource f(x) = 1 ----------
//
// -----------------------1 ---- | --> sink
type SingleSource[T any] struct {
	get func() (T, error)

	ctx          context.Context
	errorHandler func(error)
	logger       *zap.Logger
	activated    atomic.Bool
}

// SingleSourceBuilder is a fluent builder for SingleSource.
type SingleSourceBuilder[T any] struct {
	ctx          context.Context
	errorHandler func(error)
	logger       *zap.Logger
	get          func() (T, error)
}

// Single creates a new SingleSourceBuilder for building a SingleSource.
func Single[T any](get func() (T, error)) *SingleSourceBuilder[T] {
	return &SingleSourceBuilder[T]{
		get:    get,
		ctx:    context.Background(),
		logger: zap.NewNop(),
	}
}

// Value creates a SingleSourceBuilder that forwards v.
func Value[T any](v T) *SingleSourceBuilder[T] {
	return Single(func() (T, error) { return v, nil })
}

// Build creates the SingleSource.
func (b *SingleSourceBuilder[T]) Build() *SingleSource[T] {
	return &SingleSource[T]{
		get:          b.get,
		ctx:          b.ctx,
		errorHandler: b.errorHandler,
		logger:       b.logger,
	}
}

func (b *SingleSourceBuilder[T]) Context(
	ctx context.Context,
) *SingleSourceBuilder[T] {
	b.ctx = ctx
	return b
}

// ErrorHandler sets the error handler for the SingleSource. It is called when
// the value cannot be produced.
func (b *SingleSourceBuilder[T]) ErrorHandler(
	handler func(error),
) *SingleSourceBuilder[T] {
	b.errorHandler = handler
	return b
}

// Logger sets the logger for the SingleSource.
func (b *SingleSourceBuilder[T]) Logger(
	logger *zap.Logger,
) *SingleSourceBuilder[T] {
	b.logger = logger
	return b
}

// Forward produces the value and sends it to sink.
func (s *SingleSource[T]) Forward(sink primitives.Sender[T]) {
	s.assertNotActive()

	select {
	case <-s.ctx.Done():
		return
	default:
	}

	value, err := s.get()
	if err != nil {
		err = fmt.Errorf("single source: %w", err)
		s.logger.Warn("Failed to produce value", zap.Error(err))
		if s.errorHandler != nil {
			s.errorHandler(err)
		}
		return
	}

	if err := sink.Send(value); err != nil {
		s.logger.Debug("Sink closed, dropping value", zap.Error(err))
	}
}

func (s *SingleSource[T]) assertNotActive() {
	if !s.activated.CompareAndSwap(false, true) {
		panic("SingleSource is already streaming, cannot be forwarded again")
	}
}
