package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/arielf-camacho/fanin/primitives"
)

// DefaultReadBufferSize is the chunk size used by ReaderSource when none is
// set.
const DefaultReadBufferSize = 128

var _ = primitives.Producer[any](&ReaderSource[any]{})

// ReaderSource is a producer that reads chunks from a byte stream, such as a
// net.Conn, and forwards one decoded value per successful read.
//
// Read errors are split in two groups. Transient errors, by default timeouts,
// are retried with an exponential backoff. Any other error, io.EOF included,
// ends the source. When the context is done and the reader is an io.Closer,
// the reader is closed so that a pending Read returns.
//
// Graphically, the ReaderSource looks like this:
//
// -- "12" ----- "34" ---- EOF -->
//
// -- ReaderSource decode(b) = string(b) --
//
// -- "12" ----- "34" ----- | --> sink
type ReaderSource[T any] struct {
	reader io.Reader
	decode func([]byte) (T, error)

	ctx             context.Context
	logger          *zap.Logger
	errorHandler    func(error)
	bufferSize      uint
	transient       func(error) bool
	maxRetries      uint
	initialInterval time.Duration
	maxInterval     time.Duration
	activated       atomic.Bool
}

// ReaderSourceBuilder is a fluent builder for ReaderSource.
type ReaderSourceBuilder[T any] struct {
	reader          io.Reader
	decode          func([]byte) (T, error)
	ctx             context.Context
	logger          *zap.Logger
	errorHandler    func(error)
	bufferSize      uint
	transient       func(error) bool
	maxRetries      uint
	initialInterval time.Duration
	maxInterval     time.Duration
}

// Reader creates a new ReaderSourceBuilder for building a ReaderSource. The
// decode function receives a buffer that is reused by the next read, so it
// must not retain it.
func Reader[T any](
	reader io.Reader,
	decode func([]byte) (T, error),
) *ReaderSourceBuilder[T] {
	return &ReaderSourceBuilder[T]{
		reader:          reader,
		decode:          decode,
		ctx:             context.Background(),
		logger:          zap.NewNop(),
		bufferSize:      DefaultReadBufferSize,
		transient:       IsTimeout,
		initialInterval: backoff.DefaultInitialInterval,
		maxInterval:     backoff.DefaultMaxInterval,
	}
}

// Context sets the context for the ReaderSource.
func (b *ReaderSourceBuilder[T]) Context(
	ctx context.Context,
) *ReaderSourceBuilder[T] {
	b.ctx = ctx
	return b
}

// Logger sets the logger for the ReaderSource.
func (b *ReaderSourceBuilder[T]) Logger(
	logger *zap.Logger,
) *ReaderSourceBuilder[T] {
	b.logger = logger
	return b
}

// ErrorHandler sets a function called with the error that ended the source.
// It is not called for io.EOF nor when the context is done.
func (b *ReaderSourceBuilder[T]) ErrorHandler(
	handler func(error),
) *ReaderSourceBuilder[T] {
	b.errorHandler = handler
	return b
}

// BufferSize sets the size of the read buffer, which bounds the size of a
// single chunk handed to decode.
func (b *ReaderSourceBuilder[T]) BufferSize(size uint) *ReaderSourceBuilder[T] {
	if size > 0 {
		b.bufferSize = size
	}
	return b
}

// Transient sets the function deciding whether a read error is worth a retry.
func (b *ReaderSourceBuilder[T]) Transient(
	transient func(error) bool,
) *ReaderSourceBuilder[T] {
	b.transient = transient
	return b
}

// MaxRetries bounds the number of consecutive transient failures tolerated
// before the source gives up. Zero means retry forever.
func (b *ReaderSourceBuilder[T]) MaxRetries(n uint) *ReaderSourceBuilder[T] {
	b.maxRetries = n
	return b
}

// Backoff sets the initial and maximum wait between retries.
func (b *ReaderSourceBuilder[T]) Backoff(
	initial, maxWait time.Duration,
) *ReaderSourceBuilder[T] {
	b.initialInterval = initial
	b.maxInterval = maxWait
	return b
}

// Build creates the ReaderSource.
func (b *ReaderSourceBuilder[T]) Build() *ReaderSource[T] {
	return &ReaderSource[T]{
		reader:          b.reader,
		decode:          b.decode,
		ctx:             b.ctx,
		logger:          b.logger,
		errorHandler:    b.errorHandler,
		bufferSize:      b.bufferSize,
		transient:       b.transient,
		maxRetries:      b.maxRetries,
		initialInterval: b.initialInterval,
		maxInterval:     b.maxInterval,
	}
}

// Forward reads from the underlying reader until it fails terminally, the
// context is done or sink rejects a value.
func (s *ReaderSource[T]) Forward(sink primitives.Sender[T]) {
	s.assertNotActive()

	if closer, ok := s.reader.(io.Closer); ok {
		stop := context.AfterFunc(s.ctx, func() {
			_ = closer.Close()
		})
		defer stop()
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = s.initialInterval
	retry.MaxInterval = s.maxInterval

	buf := make([]byte, s.bufferSize)
	var failures uint

	for {
		if s.ctx.Err() != nil {
			return
		}

		n, err := s.reader.Read(buf)

		// Data returned along with an error is forwarded before the error
		// is looked at.
		if n > 0 && !s.forward(sink, buf[:n]) {
			return
		}

		if err == nil {
			failures = 0
			retry.Reset()
			continue
		}

		if !s.transient(err) {
			s.fail(err)
			return
		}

		failures++
		if s.maxRetries > 0 && failures > s.maxRetries {
			s.fail(fmt.Errorf("giving up after %d transient failures: %w", failures, err))
			return
		}

		wait := retry.NextBackOff()
		if wait == backoff.Stop {
			wait = s.maxInterval
		}

		s.logger.Debug("Transient read failure, retrying",
			zap.Error(err),
			zap.Uint("attempt", failures),
			zap.Duration("backoff", wait))

		if !sleep(s.ctx, wait) {
			return
		}
	}
}

// forward decodes chunk and sends the result. It returns false when the sink
// is gone.
func (s *ReaderSource[T]) forward(sink primitives.Sender[T], chunk []byte) bool {
	value, err := s.decode(chunk)
	if err != nil {
		s.logger.Warn("Dropping undecodable chunk",
			zap.Int("size", len(chunk)),
			zap.Error(err))
		return true
	}

	if err := sink.Send(value); err != nil {
		s.logger.Debug("Sink closed, stopping reader source", zap.Error(err))
		return false
	}

	return true
}

func (s *ReaderSource[T]) fail(err error) {
	switch {
	case s.ctx.Err() != nil:
		s.logger.Debug("Reader source cancelled", zap.Error(err))
		return
	case errors.Is(err, io.EOF):
		s.logger.Debug("Reader source exhausted")
		return
	}

	err = fmt.Errorf("reader source: %w", err)
	s.logger.Warn("Reader source failed", zap.Error(err))
	if s.errorHandler != nil {
		s.errorHandler(err)
	}
}

func (s *ReaderSource[T]) assertNotActive() {
	if !s.activated.CompareAndSwap(false, true) {
		panic("ReaderSource is already streaming, cannot be forwarded again")
	}
}

// IsTimeout reports whether err, or any error it wraps, is a timeout such as
// a net.Conn read deadline.
func IsTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
