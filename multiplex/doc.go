// Package multiplex fans the output of many producers into one stream.
//
// Start runs every producer on its own goroutine and returns the reading side
// of an unbounded queue shared by all of them:
//
//	rx := multiplex.Start[Item](a, b, c)
//	for {
//		item, ok := rx.Recv()
//		if !ok {
//			break
//		}
//		...
//	}
//
// The stream is exhausted once every producer's Forward has returned. The
// engine keeps no reference to the producers after Start returns and offers no
// way to stop them: a producer that never finishes keeps its goroutine alive
// for the lifetime of the process. Producers that need to be stoppable take a
// context through their own builders, see package sources.
package multiplex
