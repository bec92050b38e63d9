package tempoz

import (
	"context"
	"time"
)

// Batcher collects values from a stream and groups them into batches based
// on size or time constraints. A batch is emitted when either the maximum
// size is reached or the maximum latency expires, whichever comes first.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Batcher[T any] struct {
	config BatchConfig
	name   string
	clock  Clock
}

// NewBatcher creates a processor that groups values into batches. The
// latency timer starts when the first value enters an empty batch, so a
// batch never waits longer than MaxLatency from its first value. A partial
// batch is flushed when the input closes.
//
// MaxSize of zero or less disables the size trigger; MaxLatency of zero or
// less disables the time trigger. With both disabled, everything
// accumulates into one batch flushed at close.
//
// Error Results are never batched: they pass through immediately,
// converted to the batch type with attribution and timestamp preserved,
// ahead of the values accumulating in the current batch.
//
// When to use:
//   - Optimizing database writes with bulk operations
//   - Reducing API calls by grouping requests
//   - Micro-batching a stream for periodic processing
//
// Example:
//
//	// Up to 1000 events or 5 seconds, whichever comes first
//	batcher := tempoz.NewBatcher[Event](tempoz.BatchConfig{
//		MaxSize:    1000,
//		MaxLatency: 5 * time.Second,
//	}, tempoz.RealClock)
//
//	batches := batcher.Process(ctx, events)
//	for batch := range batches {
//		bulkInsert(batch.Value())
//	}
//
// Parameters:
//   - config: Batch configuration with size and latency constraints
//   - clock: Clock interface for time operations
func NewBatcher[T any](config BatchConfig, clock Clock) *Batcher[T] {
	return &Batcher[T]{
		config: config,
		name:   "batcher",
		clock:  clock,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "batcher".
func (b *Batcher[T]) WithName(name string) *Batcher[T] {
	b.name = name
	return b
}

// Process batches the input stream. The output closes after the input
// closes and any partial batch has been flushed, or when the context is
// cancelled.
func (b *Batcher[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		var timer Timer
		var timerC <-chan time.Time
		batch := b.newBatch()

		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			if !sendResult(ctx, out, NewSuccess(batch)) {
				return false
			}
			batch = b.newBatch()
			if timer != nil {
				timer.Stop()
			}
			timerC = nil
			return true
		}

		for {
			select {
			case item, ok := <-in:
				if !ok {
					flush()
					return
				}

				if item.IsError() {
					if !sendResult(ctx, out, forwardError[T, []T](item.Error())) {
						return
					}
					continue
				}

				if len(batch) == 0 && b.config.MaxLatency > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = b.clock.NewTimer(b.config.MaxLatency)
					timerC = timer.C()
				}

				batch = append(batch, item.Value())

				if b.config.MaxSize > 0 && len(batch) >= b.config.MaxSize {
					if !flush() {
						return
					}
				}

			case <-timerC:
				timerC = nil
				if !flush() {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (b *Batcher[T]) newBatch() []T {
	if b.config.MaxSize > 0 {
		return make([]T, 0, b.config.MaxSize)
	}
	return nil
}

// Name returns the processor name for debugging and monitoring.
func (b *Batcher[T]) Name() string {
	return b.name
}
