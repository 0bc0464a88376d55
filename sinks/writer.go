package sinks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
)

// WriterSink drains an Outlet, such as a multiplexed stream, writing every
// value to an io.Writer once formatted.
//
// Graphically, the WriterSink looks like this:
//
// -- 1 -- 2 -- 3 -- 4 -- 5 -- | -->
// -- WriterSink --
// -> 1 -- 2 -- 3 -- 4 -- 5 -- |
type WriterSink[T any] struct {
	ctx    context.Context
	logger *zap.Logger
	writer io.Writer
	format func(T) []byte

	once sync.Once
	done chan struct{}
	err  error
}

// WriterSinkBuilder is a fluent builder for WriterSink.
type WriterSinkBuilder[T any] struct {
	writer io.Writer
	format func(T) []byte
	ctx    context.Context
	logger *zap.Logger
}

// Writer creates a new WriterSinkBuilder for building a WriterSink.
func Writer[T any](w io.Writer, format func(T) []byte) *WriterSinkBuilder[T] {
	return &WriterSinkBuilder[T]{
		writer: w,
		format: format,
		ctx:    context.Background(),
		logger: zap.NewNop(),
	}
}

// Lines formats values with fmt, one per line.
func Lines[T any](v T) []byte {
	return fmt.Appendln(nil, v)
}

// Context sets the context for the WriterSink.
func (b *WriterSinkBuilder[T]) Context(ctx context.Context) *WriterSinkBuilder[T] {
	b.ctx = ctx
	return b
}

// Logger sets the logger for the WriterSink.
func (b *WriterSinkBuilder[T]) Logger(logger *zap.Logger) *WriterSinkBuilder[T] {
	b.logger = logger
	return b
}

// Build creates the WriterSink.
func (b *WriterSinkBuilder[T]) Build() *WriterSink[T] {
	return &WriterSink[T]{
		writer: b.writer,
		format: b.format,
		ctx:    b.ctx,
		logger: b.logger,
		done:   make(chan struct{}),
	}
}

// From starts draining the given outlet in the background. Only the first
// call has an effect.
func (w *WriterSink[T]) From(from primitives.Outlet[T]) *WriterSink[T] {
	w.once.Do(func() {
		go w.start(from.Out())
	})
	return w
}

// Wait blocks until the outlet is exhausted, the context is done or a write
// fails, and returns the write error if any.
func (w *WriterSink[T]) Wait() error {
	<-w.done
	return w.err
}

func (w *WriterSink[T]) start(in <-chan T) {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}

			if _, err := w.writer.Write(w.format(v)); err != nil {
				w.err = fmt.Errorf("writer sink: %w", err)
				w.logger.Warn("Failed to write value", zap.Error(w.err))
				return
			}
		}
	}
}
