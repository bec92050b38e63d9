package tempoz

import (
	"context"
	"time"
)

// Delay shifts every value later in time by a fixed duration while
// preserving order and spacing.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Delay[T any] struct {
	name     string
	clock    Clock
	duration time.Duration
}

// delayed is one queued value with its release deadline.
type delayed[T any] struct {
	at     time.Time
	result Result[T]
}

// NewDelay creates a processor that emits each value no earlier than its
// arrival plus the configured duration. Values queue in FIFO order with
// one timer armed for the front deadline; a constant delay means deadlines
// are already ordered, so no sorting is needed. The queue keeps draining
// on schedule after the input closes, and the output closes once it is
// empty.
//
// Error Results bypass the delay and are emitted immediately, ahead of any
// values still waiting in the queue.
//
// A duration of zero or less disables delaying and every value passes
// through immediately.
//
// When to use:
//   - Simulating latency in tests and load harnesses
//   - Deliberately lagging one stream relative to another
//   - Giving external systems a grace period before reacting
//
// Example:
//
//	// Mirror live traffic to a canary with 5s of slack
//	delay := tempoz.NewDelay[Request](5*time.Second, tempoz.RealClock)
//	lagged := delay.Process(ctx, requests)
//
// Parameters:
//   - duration: How long each value is held before emission
//   - clock: Clock interface for time operations
func NewDelay[T any](duration time.Duration, clock Clock) *Delay[T] {
	return &Delay[T]{
		name:     "delay",
		duration: duration,
		clock:    clock,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "delay".
func (d *Delay[T]) WithName(name string) *Delay[T] {
	d.name = name
	return d
}

// Process delays the input stream. The output closes once the input has
// closed and the queue has drained on schedule, or when the context is
// cancelled, whichever comes first.
func (d *Delay[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		var timer Timer
		var timerC <-chan time.Time
		var queue []delayed[T]

		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			if in == nil && len(queue) == 0 {
				return
			}

			select {
			case result, ok := <-in:
				if !ok {
					// nil channel blocks forever, leaving only drain cases.
					in = nil
					continue
				}

				if result.IsError() {
					if !sendResult(ctx, out, result) {
						return
					}
					continue
				}

				if d.duration <= 0 {
					if !sendResult(ctx, out, result) {
						return
					}
					continue
				}

				queue = append(queue, delayed[T]{at: d.clock.Now().Add(d.duration), result: result})
				if timerC == nil {
					timer = d.clock.NewTimer(d.duration)
					timerC = timer.C()
				}

			case now := <-timerC:
				timerC = nil
				for len(queue) > 0 && !queue[0].at.After(now) {
					if !sendResult(ctx, out, queue[0].result) {
						return
					}
					queue = queue[1:]
				}
				if len(queue) > 0 {
					timer = d.clock.NewTimer(queue[0].at.Sub(now))
					timerC = timer.C()
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (d *Delay[T]) Name() string {
	return d.name
}
