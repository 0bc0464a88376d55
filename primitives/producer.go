package primitives

// Producer is a source of values that can be plugged into a multiplexer. The
// multiplexer calls Forward exactly once, on a goroutine dedicated to the
// producer, and no other goroutine touches the producer afterwards.
//
// Forward pulls values from the producer's native source, translates each one
// into T and sends it to sink before fetching the next. It returns only when
// the native source is exhausted, when a failure the producer considers
// terminal occurs, or when sink.Send fails. Transient failures must be handled
// inside Forward: returning removes the producer from the merge for good.
type Producer[T any] interface {
	Forward(sink Sender[T])
}

// ProducerFunc adapts an ordinary function to the Producer interface.
type ProducerFunc[T any] func(sink Sender[T])

// Forward calls f(sink).
func (f ProducerFunc[T]) Forward(sink Sender[T]) {
	f(sink)
}
