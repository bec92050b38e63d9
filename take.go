package tempoz

import (
	"context"
)

// Take limits the stream to the first n successful values.
type Take[T any] struct {
	name  string
	count int
}

// NewTake creates a processor that passes only the first n successful
// values, then closes the output and drains remaining input so upstream
// producers are not left blocked. Error Results pass through without
// counting toward the limit.
//
// When to use:
//   - Limit processing to a sample of data
//   - Early termination of infinite streams
//   - Testing with limited data sets
//
// Example:
//
//	// Process only the first 100 events
//	take := tempoz.NewTake[Event[int]](100)
//	limited := take.Process(ctx, events)
func NewTake[T any](count int) *Take[T] {
	return &Take[T]{
		count: count,
		name:  "take",
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "take".
func (t *Take[T]) WithName(name string) *Take[T] {
	t.name = name
	return t
}

// Process limits the input stream to the first n values.
func (t *Take[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		taken := 0
		for item := range in {
			if taken >= t.count {
				break
			}

			select {
			case out <- item:
				if item.IsSuccess() {
					taken++
				}
			case <-ctx.Done():
				return
			}
		}

		//nolint:revive // empty-block: necessary to drain remaining items from input channel
		for range in {
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (t *Take[T]) Name() string {
	return t.name
}
