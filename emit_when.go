package tempoz

import (
	"context"
	"log/slog"
)

// EmitWhen gates a source stream on a predicate over the latest values of
// one or more condition inputs. Source values pass through unchanged when
// the predicate holds and are dropped when it does not; condition values
// never appear downstream.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type EmitWhen[T Timed, U Timed] struct {
	name      string
	predicate func(T, []U) bool
	logger    *slog.Logger
}

// NewEmitWhen creates a gate that evaluates predicate for every source
// value against a snapshot of the latest condition values. True passes the
// source item through untouched, value and timestamp alike; false drops
// it. Condition arrivals only refresh their slot.
//
// Source values arriving before every condition input has produced at
// least one value are dropped. The gate never terminates on a false
// predicate; it keeps evaluating every subsequent source value (contrast
// TakeWhileWith, which completes on the first failure).
//
// Arrivals are consumed in timestamp order across all inputs, so the
// conditions consulted for a source value are exactly those that preceded
// it in stream time. A silent input stalls consumption until it produces
// or closes.
//
// Error Results from the source or any condition input are forwarded
// downstream; condition errors are converted to the output type.
//
// When to use:
//   - Suppressing readings while the system is in a maintenance state
//   - Passing trades only while every market-status feed reports open
//   - Any pass/drop decision that depends on other live streams
//
// Example:
//
//	// Forward alerts only while the circuit is armed.
//	gate := tempoz.NewEmitWhen(func(_ Event[Alert], armed []Event[bool]) bool {
//		return armed[0].Payload
//	})
//	out := gate.Process(ctx, alerts, armedFeed)
//
// Parameters:
//   - predicate: Decides pass or drop from the arriving source value and a
//     snapshot of latest condition values indexed by condition position.
//     Runs outside the state lock; a panic is recovered and logged, and
//     that source value is dropped.
func NewEmitWhen[T Timed, U Timed](predicate func(value T, conditions []U) bool) *EmitWhen[T, U] {
	return &EmitWhen[T, U]{
		name:      "emit-when",
		predicate: predicate,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "emit-when".
func (e *EmitWhen[T, U]) WithName(name string) *EmitWhen[T, U] {
	e.name = name
	return e
}

// WithLogger sets the logger used for callback-panic diagnostics.
// If not set, defaults to slog.Default().
func (e *EmitWhen[T, U]) WithLogger(logger *slog.Logger) *EmitWhen[T, U] {
	e.logger = logger
	return e
}

// Process gates the source stream on the condition inputs. The output
// completes once all inputs have closed and buffered arrivals are
// processed.
func (e *EmitWhen[T, U]) Process(ctx context.Context, source <-chan Result[T], conditions ...<-chan Result[U]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		mctx, cancel := context.WithCancel(ctx)
		defer cancel()

		tagged := make([]<-chan slotItem[T, U], 0, len(conditions)+1)
		tagged = append(tagged, pumpSource[T, U](mctx, source))
		for i, in := range conditions {
			tagged = append(tagged, pumpOther[T](mctx, in, i+1))
		}

		state := newCombinedState[struct{}, U](len(conditions))

		runOrderedMerge(mctx, tagged, slotTime[T, U], func(item slotItem[T, U]) bool {
			if item.index > 0 {
				if item.other.IsError() {
					return sendResult(ctx, out, forwardError[U, T](item.other.Error()))
				}
				state.observeValue(item.index-1, item.other.Value())
				return true
			}

			if item.source.IsError() {
				return sendResult(ctx, out, item.source)
			}

			complete, snapshot := state.observeSourceAndSnapshot(struct{}{})
			if !complete {
				return true
			}

			pass, ok := guard(e.logger, e.name, func() bool { return e.predicate(item.source.Value(), snapshot) })
			if !ok || !pass {
				return true
			}
			return sendResult(ctx, out, item.source)
		})
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (e *EmitWhen[T, U]) Name() string {
	return e.name
}
