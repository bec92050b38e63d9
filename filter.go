package tempoz

import (
	"context"
)

// Filter selectively passes values through a stream based on a predicate
// function. Only values for which the predicate returns true are emitted;
// the rest are discarded.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Filter[T any] struct {
	name      string
	predicate func(T) bool
}

// NewFilter creates a processor that selectively passes values based on a
// predicate. Values for which the predicate returns true are forwarded
// unchanged; the rest are discarded.
//
// Error Results are passed through unchanged without applying the
// predicate. The predicate should be pure and deterministic for
// predictable filtering behavior.
//
// When to use:
//   - Remove invalid or unwanted data from streams
//   - Apply business rules and validation logic
//   - Reduce processing load by filtering upstream
//
// Example:
//
//	// Keep only readings inside the plausible range
//	plausible := tempoz.NewFilter(func(r Reading) bool {
//		return r.Value >= -40 && r.Value <= 85
//	})
//	clean := plausible.Process(ctx, readings)
//
// Parameters:
//   - predicate: Function that returns true for values to keep
func NewFilter[T any](predicate func(T) bool) *Filter[T] {
	return &Filter[T]{
		name:      "filter",
		predicate: predicate,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "filter".
func (f *Filter[T]) WithName(name string) *Filter[T] {
	f.name = name
	return f
}

// Process filters the input stream. Values failing the predicate are
// silently discarded; errors pass through unchanged.
func (f *Filter[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		for item := range in {
			if item.IsSuccess() && !f.predicate(item.Value()) {
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
func (f *Filter[T]) Name() string {
	return f.name
}
