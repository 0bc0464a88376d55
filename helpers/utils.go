package helpers

import (
	"context"
)

// Collect collects the values from the given channel into a slice and returns
// it once the channel is closed. If the context is done, the function returns
// the collected values so far.
func Collect[T any](ctx context.Context, source <-chan T) []T {
	var result []T
	for {
		select {
		case <-ctx.Done():
			return result
		case v, ok := <-source:
			if !ok {
				return result
			}
			result = append(result, v)
		}
	}
}

// CollectN collects at most n values from the given channel. It returns early
// when the channel is closed or the context is done.
func CollectN[T any](ctx context.Context, source <-chan T, n int) []T {
	var result []T
	for len(result) < n {
		select {
		case <-ctx.Done():
			return result
		case v, ok := <-source:
			if !ok {
				return result
			}
			result = append(result, v)
		}
	}

	return result
}

// Drain drains the given channel until it is closed.
func Drain[T any](source <-chan T) {
	for range source {
	}
}
