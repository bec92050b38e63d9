package tempoz

import (
	"context"
	"log/slog"
)

// CombineLatest tracks the latest value from each of N inputs and emits a
// derived value whenever any input updates, once every input has produced
// at least one value. The classic reactive combinator for "recompute
// whenever anything changes".
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type CombineLatest[T Timed, R Stamped[R]] struct {
	name    string
	combine func([]T) R
	logger  *slog.Logger
}

// NewCombineLatest creates a combinator that calls combine with the latest
// value of every input each time any input updates. No output is produced
// until every input has delivered at least one value (the completeness
// gate); the first output fires on whichever input completes the set, and
// every update after that emits.
//
// The emitted value always carries the timestamp of the input that
// triggered it - the combine selector's own timestamp is overwritten. This
// keeps output timestamps monotonic for downstream ordering-sensitive
// operators; sampled inputs never leak stale timestamps into the output.
//
// Inputs are consumed in timestamp order through the ordered-merge core, so
// "latest at that instant" is causally exact: an update cannot be observed
// before an earlier-stamped update from another input. The flip side is
// that an input which stays silent stalls the combinator until it produces
// or closes.
//
// Error Results from any input are forwarded downstream unchanged in
// meaning (converted to the output type) and never touch the slots.
//
// When to use:
//   - Deriving a value that depends on several independently updating feeds
//   - Recomputing aggregate status whenever any constituent changes
//   - Sensor fusion where each reading should use peers' freshest values
//
// Example:
//
//	// Recompute the comfort index whenever temperature or humidity moves.
//	combine := tempoz.NewCombineLatest(func(latest []Event[float64]) Event[float64] {
//		return tempoz.NewEvent(comfortIndex(latest[0].Payload, latest[1].Payload), time.Time{})
//	})
//	out := combine.Process(ctx, temperature, humidity)
//
// Parameters:
//   - combine: Selector building the derived value from a snapshot of the
//     latest values, indexed by input position. Runs outside the state lock;
//     a panic is recovered and logged, and that emission is skipped.
func NewCombineLatest[T Timed, R Stamped[R]](combine func(latest []T) R) *CombineLatest[T, R] {
	return &CombineLatest[T, R]{
		name:    "combine-latest",
		combine: combine,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "combine-latest".
func (c *CombineLatest[T, R]) WithName(name string) *CombineLatest[T, R] {
	c.name = name
	return c
}

// WithLogger sets the logger used for callback-panic diagnostics.
// If not set, defaults to slog.Default().
func (c *CombineLatest[T, R]) WithLogger(logger *slog.Logger) *CombineLatest[T, R] {
	c.logger = logger
	return c
}

// Process combines the inputs into a stream of derived values.
// The output completes once every input has closed and all buffered
// arrivals are processed. Zero inputs complete immediately.
func (c *CombineLatest[T, R]) Process(ctx context.Context, ins ...<-chan Result[T]) <-chan Result[R] {
	out := make(chan Result[R])

	go func() {
		defer close(out)

		mctx, cancel := context.WithCancel(ctx)
		defer cancel()

		tagged := make([]<-chan slotItem[struct{}, T], len(ins))
		for i, in := range ins {
			tagged[i] = pumpOther[struct{}](mctx, in, i)
		}

		state := newCombinedState[struct{}, T](len(ins))

		runOrderedMerge(mctx, tagged, slotTime[struct{}, T], func(item slotItem[struct{}, T]) bool {
			if item.other.IsError() {
				return sendResult(ctx, out, forwardError[T, R](item.other.Error()))
			}

			complete, snapshot := state.observeValueAndSnapshot(item.index, item.other.Value())
			if !complete {
				return true
			}

			combined, ok := guard(c.logger, c.name, func() R { return c.combine(snapshot) })
			if !ok {
				return true
			}
			return sendResult(ctx, out, NewSuccess(combined.WithTimestamp(item.at)))
		})
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (c *CombineLatest[T, R]) Name() string {
	return c.name
}
