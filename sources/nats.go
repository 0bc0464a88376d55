package sources

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
)

// Subscription is the part of a synchronous NATS subscription used by
// NATSSource. *nats.Subscription satisfies it.
type Subscription interface {
	NextMsgWithContext(ctx context.Context) (*nats.Msg, error)
	Unsubscribe() error
}

var (
	_ = Subscription(&nats.Subscription{})
	_ = primitives.Producer[any](&NATSSource[any]{})
)

// SubscribeNATS creates a synchronous subscription on subject, ready to be
// handed to NATS.
func SubscribeNATS(conn *nats.Conn, subject string) (*nats.Subscription, error) {
	if conn == nil {
		return nil, fmt.Errorf("subscribe to %q: nil connection", subject)
	}

	sub, err := conn.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %q: %w", subject, err)
	}

	return sub, nil
}

// NATSSource is a producer that forwards the messages of a NATS subscription.
// It stops when the subscription or its connection is closed, when the
// context is done or when the sink rejects a value, and unsubscribes on its
// way out.
//
// Graphically, the NATSSource looks like this:
//
// -- subject -> m1 -- m2 -- m3 -- | -->
//
// -- NATSSource decode(m) -----------
//
// ------------- v1 -- v2 -- v3 -- | --> sink
type NATSSource[T any] struct {
	sub    Subscription
	decode func(*nats.Msg) (T, error)

	ctx          context.Context
	logger       *zap.Logger
	errorHandler func(error)
	activated    atomic.Bool
}

// NATSSourceBuilder is a fluent builder for NATSSource.
type NATSSourceBuilder[T any] struct {
	sub          Subscription
	decode       func(*nats.Msg) (T, error)
	ctx          context.Context
	logger       *zap.Logger
	errorHandler func(error)
}

// NATS creates a new NATSSourceBuilder for building a NATSSource. Messages
// that decode rejects are logged and skipped.
func NATS[T any](
	sub Subscription,
	decode func(*nats.Msg) (T, error),
) *NATSSourceBuilder[T] {
	return &NATSSourceBuilder[T]{
		sub:    sub,
		decode: decode,
		ctx:    context.Background(),
		logger: zap.NewNop(),
	}
}

// Context sets the context for the NATSSource.
func (b *NATSSourceBuilder[T]) Context(
	ctx context.Context,
) *NATSSourceBuilder[T] {
	b.ctx = ctx
	return b
}

// Logger sets the logger for the NATSSource.
func (b *NATSSourceBuilder[T]) Logger(
	logger *zap.Logger,
) *NATSSourceBuilder[T] {
	b.logger = logger
	return b
}

// ErrorHandler sets a function called with the error that ended the source.
// It is not called when the context is done.
func (b *NATSSourceBuilder[T]) ErrorHandler(
	handler func(error),
) *NATSSourceBuilder[T] {
	b.errorHandler = handler
	return b
}

// Build creates the NATSSource.
func (b *NATSSourceBuilder[T]) Build() *NATSSource[T] {
	return &NATSSource[T]{
		sub:          b.sub,
		decode:       b.decode,
		ctx:          b.ctx,
		logger:       b.logger,
		errorHandler: b.errorHandler,
	}
}

// Forward sends every decoded message of the subscription to sink.
func (s *NATSSource[T]) Forward(sink primitives.Sender[T]) {
	s.assertNotActive()
	defer s.unsubscribe()

	for {
		msg, err := s.sub.NextMsgWithContext(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				s.logger.Debug("NATS source cancelled", zap.Error(err))
				return
			}
			if errors.Is(err, nats.ErrTimeout) {
				s.logger.Debug("Timed out waiting for message, retrying")
				continue
			}

			err = fmt.Errorf("nats source: %w", err)
			s.logger.Warn("NATS source failed", zap.Error(err))
			if s.errorHandler != nil {
				s.errorHandler(err)
			}
			return
		}

		value, err := s.decode(msg)
		if err != nil {
			s.logger.Warn("Dropping undecodable message",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			continue
		}

		if err := sink.Send(value); err != nil {
			s.logger.Debug("Sink closed, stopping NATS source", zap.Error(err))
			return
		}
	}
}

func (s *NATSSource[T]) unsubscribe() {
	err := s.sub.Unsubscribe()
	if err != nil &&
		!errors.Is(err, nats.ErrConnectionClosed) &&
		!errors.Is(err, nats.ErrBadSubscription) {
		s.logger.Warn("Failed to unsubscribe", zap.Error(err))
	}
}

func (s *NATSSource[T]) assertNotActive() {
	if !s.activated.CompareAndSwap(false, true) {
		panic("NATSSource is already streaming, cannot be forwarded again")
	}
}

// NATSData decodes a message as its raw payload.
func NATSData(msg *nats.Msg) ([]byte, error) {
	return msg.Data, nil
}
