package tempoz

import (
	"context"
	"time"
)

// Throttle rate-limits a stream on the leading edge: the first value passes
// immediately and opens a cooling window, values inside the window drop.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Throttle[T any] struct {
	name     string
	clock    Clock
	duration time.Duration
}

// NewThrottle creates a processor that emits the first value of each burst
// and drops the rest for the configured duration. Cooling is tracked as a
// timestamp on the injected Clock rather than a running timer, so the
// window expires the moment the clock passes it and no timer goroutine is
// left behind. The expiry itself emits nothing; the next value does.
//
// Error Results bypass throttling entirely and are emitted immediately,
// even mid-window. They do not open or extend a cooling window.
//
// A duration of zero or less disables throttling and every value passes.
//
// When to use:
//   - Protecting downstream consumers from input bursts
//   - Limiting the rate of user-triggered actions (clicks, keypresses)
//   - Enforcing a minimum spacing between emissions
//
// Example:
//
//	// At most one notification per 30 seconds
//	throttle := tempoz.NewThrottle[Notification](30*time.Second, tempoz.RealClock)
//	calmed := throttle.Process(ctx, notifications)
//
// Parameters:
//   - duration: Length of the cooling window opened by each emission
//   - clock: Clock interface for time operations
func NewThrottle[T any](duration time.Duration, clock Clock) *Throttle[T] {
	return &Throttle[T]{
		name:     "throttle",
		duration: duration,
		clock:    clock,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "throttle".
func (t *Throttle[T]) WithName(name string) *Throttle[T] {
	t.name = name
	return t
}

// Process throttles the input stream. The output closes when the input
// closes or the context is cancelled; a pending cooling window does not
// delay shutdown.
func (t *Throttle[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		var coolingEnd time.Time

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

				if t.duration <= 0 {
					if !sendResult(ctx, out, result) {
						return
					}
					continue
				}

				now := t.clock.Now()
				if now.Before(coolingEnd) {
					continue
				}

				if !sendResult(ctx, out, result) {
					return
				}
				coolingEnd = now.Add(t.duration)

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (t *Throttle[T]) Name() string {
	return t.name
}
