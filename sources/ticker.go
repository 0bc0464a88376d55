package sources

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
)

var _ = primitives.Producer[any](&TickerSource[any]{})

// TickerSource is a producer that forwards one value per tick. Without a
// limit it only stops when its context is done or the sink is gone.
//
// Graphically, a TickerSource with a limit of 3 looks like this:
//
// --- t1 --- t2 --- t3 | -->
//
// -- TickerSource f(t) --
//
// --- v1 --- v2 --- v3 | --> sink
type TickerSource[T any] struct {
	interval time.Duration
	tick     func(time.Time) T
	limit    uint

	ctx       context.Context
	logger    *zap.Logger
	activated atomic.Bool
}

// TickerSourceBuilder is a fluent builder for TickerSource.
type TickerSourceBuilder[T any] struct {
	interval time.Duration
	tick     func(time.Time) T
	limit    uint
	ctx      context.Context
	logger   *zap.Logger
}

// Ticker creates a new TickerSourceBuilder for building a TickerSource. It
// panics if interval is not positive.
func Ticker[T any](
	interval time.Duration,
	tick func(time.Time) T,
) *TickerSourceBuilder[T] {
	if interval <= 0 {
		panic("TickerSource interval must be positive")
	}

	return &TickerSourceBuilder[T]{
		interval: interval,
		tick:     tick,
		ctx:      context.Background(),
		logger:   zap.NewNop(),
	}
}

// Context sets the context for the TickerSource.
func (b *TickerSourceBuilder[T]) Context(
	ctx context.Context,
) *TickerSourceBuilder[T] {
	b.ctx = ctx
	return b
}

// Logger sets the logger for the TickerSource.
func (b *TickerSourceBuilder[T]) Logger(
	logger *zap.Logger,
) *TickerSourceBuilder[T] {
	b.logger = logger
	return b
}

// Limit sets the number of ticks after which the source is exhausted. Zero
// means no limit.
func (b *TickerSourceBuilder[T]) Limit(n uint) *TickerSourceBuilder[T] {
	b.limit = n
	return b
}

// Build creates the TickerSource.
func (b *TickerSourceBuilder[T]) Build() *TickerSource[T] {
	return &TickerSource[T]{
		interval: b.interval,
		tick:     b.tick,
		limit:    b.limit,
		ctx:      b.ctx,
		logger:   b.logger,
	}
}

// Forward sends tick(t) to sink on every tick.
func (s *TickerSource[T]) Forward(sink primitives.Sender[T]) {
	s.assertNotActive()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for count := uint(0); s.limit == 0 || count < s.limit; count++ {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			if err := sink.Send(s.tick(now)); err != nil {
				s.logger.Debug("Sink closed, stopping ticker source", zap.Error(err))
				return
			}
		}
	}
}

func (s *TickerSource[T]) assertNotActive() {
	if !s.activated.CompareAndSwap(false, true) {
		panic("TickerSource is already streaming, cannot be forwarded again")
	}
}
