package tempoz

import (
	"context"
)

// Skip discards the first n successful values from a stream.
type Skip[T any] struct {
	name  string
	count int
}

// NewSkip creates a processor that discards the first n successful values,
// then passes everything through. Error Results pass through even during
// the skip phase and do not count toward n.
//
// When to use:
//   - Ignore warm-up data from sensors
//   - Skip headers or metadata at the start of a stream
//   - Implement offset-based pagination
//
// Example:
//
//	// Skip the first 10 warm-up readings
//	skip := tempoz.NewSkip[Reading](10)
//	stable := skip.Process(ctx, readings)
func NewSkip[T any](count int) *Skip[T] {
	return &Skip[T]{
		count: count,
		name:  "skip",
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "skip".
func (s *Skip[T]) WithName(name string) *Skip[T] {
	s.name = name
	return s
}

// Process skips the first n values of the input stream.
func (s *Skip[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		skipped := 0
		for item := range in {
			if item.IsSuccess() && skipped < s.count {
				skipped++
				continue
			}

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
func (s *Skip[T]) Name() string {
	return s.name
}
