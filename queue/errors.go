package queue

import "errors"

var (
	// ErrReceiverClosed is returned by Sender.Send once the Receiver has been
	// closed. No value sent afterwards will ever be read.
	ErrReceiverClosed = errors.New("queue: receiver closed")

	// ErrSenderClosed is returned by Sender.Send when called on a Sender that
	// was already closed.
	ErrSenderClosed = errors.New("queue: send on closed sender")

	// ErrEmpty is returned by Receiver.TryRecv when no value is buffered but
	// at least one Sender is still open.
	ErrEmpty = errors.New("queue: empty")

	// ErrExhausted is returned by the Receiver once every Sender is closed and
	// the buffer is drained, or once the Receiver itself is closed.
	ErrExhausted = errors.New("queue: exhausted")
)
