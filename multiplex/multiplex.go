package multiplex

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
	"github.com/arielf-camacho/fanin/queue"
)

// Builder is a fluent builder for a multiplexed stream.
type Builder[T any] struct {
	producers []primitives.Producer[T]
	logger    *zap.Logger
	name      string
}

// New creates a new Builder for the given producers. Ownership of the
// producers moves to the multiplexer: callers must not use them afterwards.
func New[T any](producers ...primitives.Producer[T]) *Builder[T] {
	return &Builder[T]{
		producers: producers,
		logger:    zap.NewNop(),
	}
}

// Start multiplexes the given producers with the default settings.
func Start[T any](producers ...primitives.Producer[T]) *queue.Receiver[T] {
	return New(producers...).Start()
}

// Logger sets the logger used by the workers.
func (b *Builder[T]) Logger(logger *zap.Logger) *Builder[T] {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Name sets a name added to every log entry of this multiplex.
func (b *Builder[T]) Name(name string) *Builder[T] {
	b.name = name
	return b
}

// Start spawns one worker per producer and returns the merged stream without
// waiting for any of them. With no producers the stream is exhausted right
// away.
func (b *Builder[T]) Start() *queue.Receiver[T] {
	logger := b.logger
	if b.name != "" {
		logger = logger.With(zap.String("multiplex", b.name))
	}

	tx, rx := queue.New[T]()
	defer tx.Close()

	for i, producer := range b.producers {
		if producer == nil {
			logger.Warn("Skipping nil producer", zap.Int("index", i))
			continue
		}

		w := &worker[T]{
			id:       uuid.New(),
			producer: producer,
			sink:     tx.Clone(),
			logger:   logger,
		}

		go w.run()
	}

	return rx
}

// worker owns one producer and one writer clone of the merged stream.
type worker[T any] struct {
	id       uuid.UUID
	producer primitives.Producer[T]
	sink     *queue.Sender[T]
	logger   *zap.Logger
}

func (w *worker[T]) run() {
	logger := w.logger.With(
		zap.String("worker", w.id.String()),
		zap.String("producer", fmt.Sprintf("%T", w.producer)),
	)

	logger.Debug("Worker started")
	defer logger.Debug("Worker stopped")

	defer w.sink.Close()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Producer panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	w.producer.Forward(w.sink)
}
