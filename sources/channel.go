package sources

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
)

var _ = primitives.Producer[any](&ChannelSource[any]{})

// ChannelSource is a producer that forwards the values of a given channel
// until it is closed or context is cancelled.
//
// Graphically, the ChannelSource looks like this:
//
// ---channel -> 1 -- 2 -- 3 -- 4 -- 5 -- | -->
//
// -- ChannelSource --------------------- | -->
//
// ------------- 1 -- 2 -- 3 -- 4 -- 5 -- | --> sink
type ChannelSource[T any] struct {
	channel <-chan T

	ctx       context.Context
	logger    *zap.Logger
	activated atomic.Bool
}

// ChannelSourceBuilder is a fluent builder for ChannelSource.
type ChannelSourceBuilder[T any] struct {
	ctx     context.Context
	logger  *zap.Logger
	channel <-chan T
}

// Channel creates a new ChannelSourceBuilder for building a ChannelSource.
func Channel[T any](channel <-chan T) *ChannelSourceBuilder[T] {
	return &ChannelSourceBuilder[T]{
		channel: channel,
		ctx:     context.Background(),
		logger:  zap.NewNop(),
	}
}

// Build creates the ChannelSource.
func (b *ChannelSourceBuilder[T]) Build() *ChannelSource[T] {
	return &ChannelSource[T]{
		channel: b.channel,
		ctx:     b.ctx,
		logger:  b.logger,
	}
}

// Context sets the context for the ChannelSource.
func (b *ChannelSourceBuilder[T]) Context(
	ctx context.Context,
) *ChannelSourceBuilder[T] {
	b.ctx = ctx
	return b
}

// Logger sets the logger for the ChannelSource.
func (b *ChannelSourceBuilder[T]) Logger(
	logger *zap.Logger,
) *ChannelSourceBuilder[T] {
	b.logger = logger
	return b
}

// Forward sends every value received from the channel to sink. It returns
// when the channel is closed, the context is done or sink rejects a value.
func (s *ChannelSource[T]) Forward(sink primitives.Sender[T]) {
	s.assertNotActive()

	for {
		select {
		case <-s.ctx.Done():
			return
		case value, ok := <-s.channel:
			if !ok {
				return
			}

			if err := sink.Send(value); err != nil {
				s.logger.Debug("Sink closed, stopping channel source", zap.Error(err))
				return
			}
		}
	}
}

func (s *ChannelSource[T]) assertNotActive() {
	if !s.activated.CompareAndSwap(false, true) {
		panic("ChannelSource is already streaming, cannot be forwarded again")
	}
}
