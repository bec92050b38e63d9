package tempoz

import (
	"context"
	"time"
)

// Sample reduces a stream to at most one value per interval: each tick of a
// fixed-period clock emits the latest value received since the previous
// tick.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Sample[T any] struct {
	name     string
	clock    Clock
	interval time.Duration
}

// NewSample creates a processor that snapshots the stream on a fixed
// period. Values arriving between ticks overwrite each other; a tick emits
// the current value only if at least one arrived since the last tick, so
// quiet periods produce nothing and a value never emits twice. A value
// still held when the input closes is discarded, not flushed; the contract
// is one emission per elapsed interval, and the final interval never
// completed.
//
// Error Results bypass sampling and are emitted immediately. They do not
// overwrite the held value.
//
// An interval of zero or less disables sampling and every value passes
// through.
//
// When to use:
//   - Downsampling high-frequency feeds to a UI refresh rate
//   - Emitting periodic state snapshots from a chatty source
//   - Bounding downstream load to a fixed frequency
//
// Example:
//
//	// One position update per second, however fast the GPS talks
//	sample := tempoz.NewSample[Position](time.Second, tempoz.RealClock)
//	steady := sample.Process(ctx, positions)
//
// Parameters:
//   - interval: Tick period of the sampling clock
//   - clock: Clock interface for time operations
func NewSample[T any](interval time.Duration, clock Clock) *Sample[T] {
	return &Sample[T]{
		name:     "sample",
		interval: interval,
		clock:    clock,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "sample".
func (s *Sample[T]) WithName(name string) *Sample[T] {
	s.name = name
	return s
}

// Process samples the input stream. The output closes when the input
// closes or the context is cancelled.
func (s *Sample[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		if s.interval <= 0 {
			for result := range in {
				if !sendResult(ctx, out, result) {
					return
				}
			}
			return
		}

		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()

		var latest Result[T]
		var fresh bool

		for {
			select {
			case result, ok := <-in:
				if !ok {
					return
				}

				if result.IsError() {
					if !sendResult(ctx, out, result) {
						return
					}
					continue
				}

				latest = result
				fresh = true

			case <-ticker.C():
				if fresh {
					if !sendResult(ctx, out, latest) {
						return
					}
					fresh = false
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (s *Sample[T]) Name() string {
	return s.name
}
