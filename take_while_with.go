package tempoz

import (
	"context"
	"log/slog"
)

// TakeWhileWith passes a source stream through while a predicate over a
// condition stream's latest value holds, then completes permanently the
// first time it fails. The condition going true again later does not reopen
// the stream.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type TakeWhileWith[T Timed, U Timed] struct {
	name      string
	predicate func(U) bool
	logger    *slog.Logger
}

// NewTakeWhileWith creates a terminating gate. Each source value is checked
// against the latest condition value: true passes it through untouched,
// false closes the output and stops consuming both inputs. The latch is
// one-way; once closed, the operator never emits again.
//
// Source values arriving before the first condition value are dropped
// without terminating; the gate cannot fail before the condition has
// spoken. Condition arrivals themselves never emit and never terminate,
// even when their value would fail the predicate. Only a source arrival
// observes the condition (contrast EmitWhen, which also evaluates per
// source value but drops instead of terminating).
//
// Source and condition are consumed in timestamp order, so the condition a
// source value sees is exactly the latest one preceding it in stream time.
// A silent input stalls consumption until it produces or closes.
//
// Error Results from either input are forwarded downstream; condition
// errors are converted to the output type. Errors do not refresh the
// condition slot and do not terminate the stream.
//
// When to use:
//   - Consuming a feed only until a session or lease expires
//   - Cutting off a stream permanently when a health check fails
//   - Take-until semantics driven by another stream's content
//
// Example:
//
//	// Forward readings until the battery feed reports depleted.
//	gate := tempoz.NewTakeWhileWith[Event[Reading]](func(b Event[Battery]) bool {
//		return b.Payload.Level > 0.05
//	})
//	out := gate.Process(ctx, readings, battery)
//
// Parameters:
//   - predicate: Evaluated on the latest condition value at each source
//     arrival; false terminates the stream. Runs outside the state lock; a
//     panic is recovered and logged, and that source value is dropped
//     without terminating.
func NewTakeWhileWith[T Timed, U Timed](predicate func(condition U) bool) *TakeWhileWith[T, U] {
	return &TakeWhileWith[T, U]{
		name:      "take-while-with",
		predicate: predicate,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "take-while-with".
func (t *TakeWhileWith[T, U]) WithName(name string) *TakeWhileWith[T, U] {
	t.name = name
	return t
}

// WithLogger sets the logger used for callback-panic diagnostics.
// If not set, defaults to slog.Default().
func (t *TakeWhileWith[T, U]) WithLogger(logger *slog.Logger) *TakeWhileWith[T, U] {
	t.logger = logger
	return t
}

// Process gates the source until the predicate first fails. The output
// completes on the first failing source arrival, or once both inputs have
// closed and buffered arrivals are processed, whichever comes first.
func (t *TakeWhileWith[T, U]) Process(ctx context.Context, source <-chan Result[T], condition <-chan Result[U]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		mctx, cancel := context.WithCancel(ctx)
		defer cancel()

		tagged := []<-chan slotItem[T, U]{
			pumpSource[T, U](mctx, source),
			pumpOther[T](mctx, condition, 1),
		}

		state := newCombinedState[struct{}, U](1)

		runOrderedMerge(mctx, tagged, slotTime[T, U], func(item slotItem[T, U]) bool {
			if item.index == 1 {
				if item.other.IsError() {
					return sendResult(ctx, out, forwardError[U, T](item.other.Error()))
				}
				state.observeValue(0, item.other.Value())
				return true
			}

			if item.source.IsError() {
				return sendResult(ctx, out, item.source)
			}

			complete, snapshot := state.observeSourceAndSnapshot(struct{}{})
			if !complete {
				return true
			}

			pass, ok := guard(t.logger, t.name, func() bool { return t.predicate(snapshot[0]) })
			if !ok {
				return true
			}
			if !pass {
				return false
			}
			return sendResult(ctx, out, item.source)
		})
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (t *TakeWhileWith[T, U]) Name() string {
	return t.name
}
