package tempoz

import (
	"context"
	"log/slog"
)

// WithLatestFrom emits on primary updates only, pairing each primary value
// with the latest value from every secondary input. Secondaries update
// silently; they never drive an emission.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type WithLatestFrom[T Timed, U Timed, R Stamped[R]] struct {
	name     string
	selector func(T, []U) R
	logger   *slog.Logger
}

// NewWithLatestFrom creates a combinator driven by its primary input: every
// primary value is passed to selector together with a snapshot of the
// latest secondary values, and the selector's result is emitted. Secondary
// arrivals only refresh their slot.
//
// Primary values arriving before every secondary has produced at least one
// value are dropped, not buffered. Once the secondary set is complete,
// every primary value emits. The output carries the primary value's
// timestamp, so the stream stays monotonic regardless of how stale the
// sampled secondaries are.
//
// Arrivals across all inputs are consumed in timestamp order, so the
// sampled secondaries are exactly the ones that preceded the primary value
// in stream time. A silent input stalls consumption until it produces or
// closes.
//
// Error Results from the primary or any secondary are forwarded downstream
// converted to the output type; slots are untouched.
//
// When to use:
//   - Annotating a command stream with the current state of reference feeds
//   - Joining a fast trigger stream against slowly changing lookup values
//   - Keeping one stream authoritative while others merely parameterize it
//
// Example:
//
//	// Price each order against the latest exchange rate.
//	priced := tempoz.NewWithLatestFrom(func(o Event[Order], rates []Event[float64]) Event[Priced] {
//		return tempoz.NewEvent(price(o.Payload, rates[0].Payload), o.At)
//	})
//	out := priced.Process(ctx, orders, usdRate)
//
// Parameters:
//   - selector: Builds the output from the arriving primary value and a
//     snapshot of latest secondary values indexed by secondary position.
//     Runs outside the state lock; a panic is recovered and logged, and
//     that emission is skipped.
func NewWithLatestFrom[T Timed, U Timed, R Stamped[R]](selector func(primary T, latest []U) R) *WithLatestFrom[T, U, R] {
	return &WithLatestFrom[T, U, R]{
		name:     "with-latest-from",
		selector: selector,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "with-latest-from".
func (w *WithLatestFrom[T, U, R]) WithName(name string) *WithLatestFrom[T, U, R] {
	w.name = name
	return w
}

// WithLogger sets the logger used for callback-panic diagnostics.
// If not set, defaults to slog.Default().
func (w *WithLatestFrom[T, U, R]) WithLogger(logger *slog.Logger) *WithLatestFrom[T, U, R] {
	w.logger = logger
	return w
}

// Process pairs primary values with sampled secondaries. The output
// completes once all inputs have closed and buffered arrivals are
// processed.
func (w *WithLatestFrom[T, U, R]) Process(ctx context.Context, primary <-chan Result[T], secondaries ...<-chan Result[U]) <-chan Result[R] {
	out := make(chan Result[R])

	go func() {
		defer close(out)

		mctx, cancel := context.WithCancel(ctx)
		defer cancel()

		tagged := make([]<-chan slotItem[T, U], 0, len(secondaries)+1)
		tagged = append(tagged, pumpSource[T, U](mctx, primary))
		for i, in := range secondaries {
			tagged = append(tagged, pumpOther[T](mctx, in, i+1))
		}

		state := newCombinedState[struct{}, U](len(secondaries))

		runOrderedMerge(mctx, tagged, slotTime[T, U], func(item slotItem[T, U]) bool {
			if item.index > 0 {
				if item.other.IsError() {
					return sendResult(ctx, out, forwardError[U, R](item.other.Error()))
				}
				state.observeValue(item.index-1, item.other.Value())
				return true
			}

			if item.source.IsError() {
				return sendResult(ctx, out, forwardError[T, R](item.source.Error()))
			}

			complete, snapshot := state.observeSourceAndSnapshot(struct{}{})
			if !complete {
				return true
			}

			derived, ok := guard(w.logger, w.name, func() R { return w.selector(item.source.Value(), snapshot) })
			if !ok {
				return true
			}
			return sendResult(ctx, out, NewSuccess(derived.WithTimestamp(item.at)))
		})
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (w *WithLatestFrom[T, U, R]) Name() string {
	return w.name
}
