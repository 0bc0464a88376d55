package primitives

// Sender represents the writable side of a merged stream. Implementations must
// be safe for concurrent use by many goroutines.
type Sender[T any] interface {
	// Send enqueues v. A non-nil error means the reading side is gone and no
	// further value will ever be delivered, callers must stop sending.
	Send(v T) error
}
