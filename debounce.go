package tempoz

import (
	"context"
	"time"
)

// Debounce holds the latest value until the input has been quiet for a
// configured duration, then emits it. Rapid successions collapse to their
// final value.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Debounce[T any] struct {
	name     string
	clock    Clock
	duration time.Duration
}

// NewDebounce creates a processor that emits a value only after no newer
// value has arrived for the quiet duration. Every arrival replaces the held
// value and restarts the quiet period, so only the last value of a burst
// is seen downstream. A value still held when the input closes is flushed
// rather than lost.
//
// Error Results bypass debouncing and are emitted immediately. They do not
// replace the held value and do not restart the quiet period.
//
// When to use:
//   - Search-as-you-type input, acting only on the settled query
//   - Collapsing bursts of file change notifications
//   - Letting noisy sensors settle before reacting
//
// Example:
//
//	// Search only after 300ms of no typing
//	debounce := tempoz.NewDebounce[string](300*time.Millisecond, tempoz.RealClock)
//	settled := debounce.Process(ctx, queries)
//
// Parameters:
//   - duration: Quiet period that must elapse before the held value emits
//   - clock: Clock interface for time operations
func NewDebounce[T any](duration time.Duration, clock Clock) *Debounce[T] {
	return &Debounce[T]{
		name:     "debounce",
		duration: duration,
		clock:    clock,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "debounce".
func (d *Debounce[T]) WithName(name string) *Debounce[T] {
	d.name = name
	return d
}

// Process debounces the input stream. The output closes after the input
// closes and any held value has been flushed, or when the context is
// cancelled.
func (d *Debounce[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		// Each arrival swaps in a fresh timer. A fired value buffered in an
		// abandoned timer channel becomes unreachable, which sidesteps the
		// stop-and-drain choreography timer reuse would need.
		var timer Timer
		var timerC <-chan time.Time
		var pending Result[T]
		var hasPending bool

		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case result, ok := <-in:
				if !ok {
					if hasPending {
						sendResult(ctx, out, pending)
					}
					return
				}

				if result.IsError() {
					if !sendResult(ctx, out, result) {
						return
					}
					continue
				}

				pending = result
				hasPending = true
				if timer != nil {
					timer.Stop()
				}
				timer = d.clock.NewTimer(d.duration)
				timerC = timer.C()

			case <-timerC:
				if hasPending {
					if !sendResult(ctx, out, pending) {
						return
					}
					hasPending = false
				}
				timerC = nil

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (d *Debounce[T]) Name() string {
	return d.name
}
