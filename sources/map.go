package sources

import (
	"github.com/arielf-camacho/fanin/primitives"
)

var _ = primitives.Producer[any](&MapProducer[any, any]{})

// MapProducer wraps a producer of N and translates every value it forwards
// into T. It lets producers with different native types share one merged
// stream.
//
// Graphically, the MapProducer looks like this:
//
// -- 1 -- 2 -- 3 -- | -->
//
// -- Map f(x) = x*2 --
//
// -- 2 -- 4 -- 6 -- | --> sink
type MapProducer[N any, T any] struct {
	from      primitives.Producer[N]
	transform func(N) T
}

// Map creates a MapProducer forwarding transform(v) for every v produced by
// from.
func Map[N any, T any](
	from primitives.Producer[N],
	transform func(N) T,
) *MapProducer[N, T] {
	return &MapProducer[N, T]{
		from:      from,
		transform: transform,
	}
}

// Forward runs the wrapped producer against a sink that translates its values.
func (m *MapProducer[N, T]) Forward(sink primitives.Sender[T]) {
	m.from.Forward(&mapSender[N, T]{sink: sink, transform: m.transform})
}

type mapSender[N any, T any] struct {
	sink      primitives.Sender[T]
	transform func(N) T
}

func (s *mapSender[N, T]) Send(v N) error {
	return s.sink.Send(s.transform(v))
}
