package helpers

import (
	"sync"

	"github.com/arielf-camacho/fanin/primitives"
	"github.com/arielf-camacho/fanin/queue"
)

// Collector is a Sender that records every value sent to it. It is meant to
// drive a single Producer directly, without a multiplexer in between.
type Collector[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
}

var _ = primitives.Sender[any](&Collector[any]{})

// NewCollector returns a new Collector accepting any number of values.
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{limit: -1}
}

// FailAfter makes the Collector accept n values and reject every later one
// with queue.ErrReceiverClosed, as a closed merged stream would.
func (c *Collector[T]) FailAfter(n int) *Collector[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limit = n
	return c
}

// Send records v.
func (c *Collector[T]) Send(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limit >= 0 && len(c.items) >= c.limit {
		return queue.ErrReceiverClosed
	}

	c.items = append(c.items, v)
	return nil
}

// Items returns a copy of the values collected so far.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items == nil {
		return nil
	}

	return append([]T(nil), c.items...)
}
