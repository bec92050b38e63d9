package tempoz

import (
	"context"
)

// Buffer adds buffering capacity to a stream, decoupling producer and
// consumer pacing up to the configured size.
type Buffer[T any] struct {
	name string
	size int
}

// NewBuffer creates a processor whose output channel carries the given
// buffer capacity. The producer can run up to size Results ahead of the
// consumer before blocking; beyond that, normal channel back-pressure
// applies. Values and errors are forwarded unchanged in arrival order.
//
// When to use:
//   - Smoothing out temporary speed mismatches between stages
//   - Absorbing brief bursts without stalling the producer
//   - Placing an async boundary between pipeline stages
//
// Example:
//
//	// Let the source run up to 1000 items ahead
//	buffer := tempoz.NewBuffer[Reading](1000)
//	buffered := buffer.Process(ctx, readings)
//
// Parameters:
//   - size: Buffer capacity (0 for unbuffered)
func NewBuffer[T any](size int) *Buffer[T] {
	return &Buffer[T]{
		size: size,
		name: "buffer",
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "buffer".
func (b *Buffer[T]) WithName(name string) *Buffer[T] {
	b.name = name
	return b
}

// Process forwards the input stream through a buffered channel.
func (b *Buffer[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T], b.size)

	go func() {
		defer close(out)

		for item := range in {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (b *Buffer[T]) Name() string {
	return b.name
}
