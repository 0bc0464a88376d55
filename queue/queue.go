// Package queue provides an unbounded, multi-writer, single-reader queue used
// as the merge point of a multiplexer.
//
// The queue has no capacity limit and therefore no backpressure: Send never
// blocks, and a reader slower than its writers makes the buffer grow without
// bound. Values sent through the same Sender are read in the order they were
// sent. There is no ordering between values sent through different Senders.
//
// Graphically, a queue with two senders looks like this:
//
// -- 1 ------- 3 ------- | (Sender)
//
// ------- a ------- b -- | (Sender clone)
//
// -> 1 -- a -- 3 -- b -- | --> (Receiver)
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"

	"github.com/arielf-camacho/fanin/primitives"
)

var (
	_ = primitives.Sender[any](&Sender[any]{})
	_ = primitives.Outlet[any](&Receiver[any]{})
)

type state[T any] struct {
	mu sync.Mutex

	items   deque.Deque[T]
	senders int
	closed  bool

	// wait is closed to wake readers blocked on an empty buffer.
	wait chan struct{}
}

// wake must be called with mu held.
func (s *state[T]) wake() {
	if s.wait != nil {
		close(s.wait)
		s.wait = nil
	}
}

// Sender is the writable side of the queue. A Sender is safe for concurrent
// use, and Clone hands out additional Senders for other goroutines. The queue
// is exhausted once every Sender has been closed.
type Sender[T any] struct {
	state  *state[T]
	closed atomic.Bool
}

// Receiver is the readable side of the queue.
type Receiver[T any] struct {
	state *state[T]

	once sync.Once
	done chan struct{}
	out  chan T
}

// New creates a queue and returns its first Sender and its only Receiver.
func New[T any]() (*Sender[T], *Receiver[T]) {
	s := &state[T]{senders: 1}

	return &Sender[T]{state: s}, &Receiver[T]{
		state: s,
		done:  make(chan struct{}),
	}
}

// Send enqueues v without blocking. It returns ErrReceiverClosed once the
// Receiver is closed, which callers should treat as a signal to stop.
func (s *Sender[T]) Send(v T) error {
	if s.closed.Load() {
		return ErrSenderClosed
	}

	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return ErrReceiverClosed
	}

	st.items.PushBack(v)
	st.wake()

	return nil
}

// Clone returns a new Sender writing to the same queue. Each clone must be
// closed independently. Cloning a closed Sender panics.
func (s *Sender[T]) Clone() *Sender[T] {
	if s.closed.Load() {
		panic("queue: Clone called on a closed Sender")
	}

	st := s.state
	st.mu.Lock()
	st.senders++
	st.mu.Unlock()

	return &Sender[T]{state: st}
}

// Close releases the Sender. Closing an already closed Sender is a no-op.
func (s *Sender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	st.senders--
	if st.senders == 0 {
		st.wake()
	}
}

// Recv blocks until a value is available and returns it with true. Once the
// queue is exhausted it returns the zero value and false.
func (r *Receiver[T]) Recv() (T, bool) {
	v, err := r.RecvContext(context.Background())
	return v, err == nil
}

// RecvContext is like Recv but gives up when ctx is done, returning ctx.Err().
// It returns ErrExhausted once every Sender is closed and the buffer is empty.
func (r *Receiver[T]) RecvContext(ctx context.Context) (T, error) {
	st := r.state

	for {
		st.mu.Lock()

		v, err := r.pop()
		if !errors.Is(err, ErrEmpty) {
			st.mu.Unlock()
			return v, err
		}

		if st.wait == nil {
			st.wait = make(chan struct{})
		}
		wait := st.wait
		st.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-wait:
		}
	}
}

// TryRecv returns a buffered value without blocking. It returns ErrEmpty if
// nothing is buffered yet and ErrExhausted if nothing ever will be.
func (r *Receiver[T]) TryRecv() (T, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	return r.pop()
}

// pop must be called with mu held.
func (r *Receiver[T]) pop() (T, error) {
	var zero T

	st := r.state
	switch {
	case st.closed:
		return zero, ErrExhausted
	case st.items.Len() > 0:
		return st.items.PopFront(), nil
	case st.senders == 0:
		return zero, ErrExhausted
	default:
		return zero, ErrEmpty
	}
}

// Len returns the number of buffered values.
func (r *Receiver[T]) Len() int {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	return r.state.items.Len()
}

// Out returns a channel carrying the values of the queue. The channel is
// closed when the queue is exhausted or the Receiver is closed. The first call
// starts a goroutine feeding the channel; later calls return the same channel.
// Mixing Out with Recv splits the values between both readers.
func (r *Receiver[T]) Out() <-chan T {
	r.once.Do(func() {
		r.out = make(chan T)
		go r.pump()
	})

	return r.out
}

// Close drops the reading side. Buffered values are discarded and every later
// Send fails with ErrReceiverClosed. Closing twice is a no-op.
func (r *Receiver[T]) Close() {
	st := r.state
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return
	}

	st.closed = true
	st.items.Clear()
	st.wake()
	close(r.done)
}

func (r *Receiver[T]) pump() {
	defer close(r.out)

	for {
		v, err := r.RecvContext(context.Background())
		if err != nil {
			return
		}

		select {
		case <-r.done:
			return
		case r.out <- v:
		}
	}
}
