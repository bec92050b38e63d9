package tempoz

import (
	"context"
)

// Chunk groups successful values into fixed-size slices without time
// constraints. Unlike Batcher which considers both size and time, Chunk
// only emits when exactly 'size' values have been collected, making it
// predictable for fixed-size batch operations.
type Chunk[T any] struct {
	name string
	size int
}

// NewChunk creates a processor that groups values into fixed-size chunks.
// The last chunk may be smaller if the stream ends before filling
// completely. Error Results pass through immediately without joining a
// chunk, converted to the slice type with their original attribution.
//
// When to use:
//   - Processing data in fixed-size batches
//   - Implementing pagination or fixed-size packets
//   - Database bulk inserts with specific batch sizes
//
// Example:
//
//	// Process records in groups of 100
//	chunker := tempoz.NewChunk[Record](100)
//
//	chunks := chunker.Process(ctx, records)
//	for chunk := range chunks {
//		if chunk.IsError() {
//			log.Printf("upstream error: %v", chunk.Error())
//			continue
//		}
//		bulkInsert(chunk.Value())
//	}
//
// Parameters:
//   - size: Number of values per chunk (must be > 0)
//
// Returns a new Chunk processor.
func NewChunk[T any](size int) *Chunk[T] {
	if size < 1 {
		size = 1
	}
	return &Chunk[T]{
		size: size,
		name: "chunk",
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "chunk".
func (c *Chunk[T]) WithName(name string) *Chunk[T] {
	c.name = name
	return c
}

func (c *Chunk[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		chunk := make([]T, 0, c.size)

		for item := range in {
			if item.IsError() {
				if !sendResult(ctx, out, forwardError[T, []T](item.Error())) {
					return
				}
				continue
			}

			chunk = append(chunk, item.Value())
			if len(chunk) >= c.size {
				if !sendResult(ctx, out, NewSuccess(chunk)) {
					return
				}
				chunk = make([]T, 0, c.size)
			}
		}

		if len(chunk) > 0 {
			sendResult(ctx, out, NewSuccess(chunk))
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (c *Chunk[T]) Name() string {
	return c.name
}
