package tempoz

import (
	"context"
	"log/slog"
)

// Tap executes a side effect for each Result while passing it through
// unchanged. It observes without interfering; both values and errors are
// seen by the callback and forwarded as-is.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Tap[T any] struct {
	name   string
	fn     func(Result[T])
	logger *slog.Logger
}

// NewTap creates a processor that invokes fn on every Result and forwards
// the Result untouched. The callback receives the complete Result, so it
// can distinguish success from error cases.
//
// A panic in the callback is recovered and logged; the item is still
// forwarded. Observation must not break the pipeline.
//
// When to use:
//   - Debug logging and tracing at a pipeline stage
//   - Metrics collection without modifying data
//   - Audit trails over values and errors alike
//
// Example:
//
//	var errorCount atomic.Int64
//	audit := tempoz.NewTap(func(r tempoz.Result[Order]) {
//		if r.IsError() {
//			errorCount.Add(1)
//		}
//	})
//	observed := audit.Process(ctx, orders)
//
// Parameters:
//   - fn: Side effect invoked with each Result
func NewTap[T any](fn func(Result[T])) *Tap[T] {
	return &Tap[T]{
		name: "tap",
		fn:   fn,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "tap".
func (t *Tap[T]) WithName(name string) *Tap[T] {
	t.name = name
	return t
}

// WithLogger sets the logger used for callback-panic diagnostics.
// If not set, defaults to slog.Default().
func (t *Tap[T]) WithLogger(logger *slog.Logger) *Tap[T] {
	t.logger = logger
	return t
}

// Process observes the input stream. Every Result is passed to the
// callback and then forwarded unchanged.
func (t *Tap[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		for item := range in {
			select {
			case <-ctx.Done():
				return
			default:
			}

			t.observe(item)

			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (t *Tap[T]) observe(item Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			logger := t.logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("stream callback panicked, item forwarded unobserved",
				"operator", t.name,
				"panic", r)
		}
	}()
	t.fn(item)
}

// Name returns the processor name for debugging and monitoring.
func (t *Tap[T]) Name() string {
	return t.name
}
