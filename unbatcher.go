package tempoz

import (
	"context"
)

// Unbatcher flattens batches into individual Results.
// It's the inverse operation of Batcher and Chunk.
type Unbatcher[T any] struct {
	name string
}

// NewUnbatcher creates a processor that converts Result[[]T] streams to
// Result[T] streams. Each value in a successful batch is emitted
// individually, preserving order. Error Results cross the type boundary
// with their original attribution.
//
// When to use:
//   - After batch processing to continue with individual items
//   - Converting batch results back to streams
//   - Interfacing between batch and stream processors
//
// Example:
//
//	// Process items in batches, then continue individually
//	batcher := tempoz.NewBatcher[string](tempoz.BatchConfig{MaxSize: 10}, tempoz.RealClock)
//	unbatcher := tempoz.NewUnbatcher[string]()
//
//	batched := batcher.Process(ctx, source)
//	items := unbatcher.Process(ctx, batched)
func NewUnbatcher[T any]() *Unbatcher[T] {
	return &Unbatcher[T]{
		name: "unbatcher",
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "unbatcher".
func (u *Unbatcher[T]) WithName(name string) *Unbatcher[T] {
	u.name = name
	return u
}

func (*Unbatcher[T]) Process(ctx context.Context, in <-chan Result[[]T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		for batch := range in {
			if batch.IsError() {
				if !sendResult(ctx, out, forwardError[[]T, T](batch.Error())) {
					return
				}
				continue
			}

			for _, item := range batch.Value() {
				if !sendResult(ctx, out, NewSuccess(item)) {
					return
				}
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (u *Unbatcher[T]) Name() string {
	return u.name
}
