package tempoz

import (
	"context"
	"time"
)

// Timeout watches the gap between stream items and kills the stream when
// the source goes quiet for too long.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Timeout[T any] struct {
	name     string
	clock    Clock
	duration time.Duration
}

// NewTimeout creates a watchdog that passes every Result through and
// re-arms on each one, values and errors alike. If no item arrives within
// the duration, it emits exactly one error Result wrapping ErrTimeout and
// closes the output. The termination is final; a source that revives after
// expiry is not reconnected.
//
// The watchdog measures gaps between items, not total stream duration. A
// stream that keeps producing never times out.
//
// The timeout error's item is the zero value of T, its timestamp comes
// from the injected Clock, and it carries this processor's name, so
// downstream consumers can match it with errors.Is(err, ErrTimeout).
//
// A duration of zero or less disables the watchdog and every Result passes
// through untimed.
//
// When to use:
//   - Detecting stalled upstreams that stop producing without closing
//   - Bounding how long a consumer waits between readings
//   - Turning "source went quiet" into an explicit, inspectable error
//
// Example:
//
//	// Give up on the feed after 30 quiet seconds
//	timeout := tempoz.NewTimeout[Reading](30*time.Second, tempoz.RealClock)
//	guarded := timeout.Process(ctx, readings)
//
// Parameters:
//   - duration: Longest allowed gap between consecutive items
//   - clock: Clock interface for time operations
func NewTimeout[T any](duration time.Duration, clock Clock) *Timeout[T] {
	return &Timeout[T]{
		name:     "timeout",
		duration: duration,
		clock:    clock,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "timeout".
func (t *Timeout[T]) WithName(name string) *Timeout[T] {
	t.name = name
	return t
}

// Process guards the input stream. The output closes when the input
// closes, the watchdog expires, or the context is cancelled.
func (t *Timeout[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		if t.duration <= 0 {
			for result := range in {
				if !sendResult(ctx, out, result) {
					return
				}
			}
			return
		}

		// Fresh timer per item, same swap pattern as Debounce: a stale fire
		// buffered in an abandoned channel can never be mistaken for a
		// current expiry.
		timer := t.clock.NewTimer(t.duration)
		defer func() {
			timer.Stop()
		}()

		for {
			select {
			case result, ok := <-in:
				if !ok {
					return
				}

				if !sendResult(ctx, out, result) {
					return
				}

				timer.Stop()
				timer = t.clock.NewTimer(t.duration)

			case now := <-timer.C():
				var zero T
				sendResult(ctx, out, NewErrorAt(zero, ErrTimeout, t.name, now))
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (t *Timeout[T]) Name() string {
	return t.name
}
