package tempoz

import (
	"context"
	"log/slog"
)

// TakeLatestWhen samples a source stream on demand: it buffers the latest
// source value and emits a copy of it whenever the trigger input delivers a
// value satisfying the predicate. Source arrivals alone never emit.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type TakeLatestWhen[T Stamped[T], U Timed] struct {
	name      string
	predicate func(U) bool
	logger    *slog.Logger
}

// NewTakeLatestWhen creates a sample-and-hold combinator. Source values
// refresh an internal hold register; qualifying trigger values read it out.
// The same held value re-emits on every qualifying trigger until the source
// replaces it, and triggers arriving before the first source value are
// dropped.
//
// Emitted values are restamped with the trigger's timestamp, since the
// trigger is what caused the emission; that keeps the output monotonic even
// when the held value is old. The value's original source timestamp is
// preserved as metadata under MetadataOriginTime for consumers that need
// reading-time provenance, such as staleness checks.
//
// Source and trigger are consumed in timestamp order, so "latest" means
// latest as of the trigger's instant in stream time, not latest by arrival
// race. A silent input stalls consumption until it produces or closes.
//
// Error Results from either input are forwarded downstream; trigger errors
// are converted to the output type. Errors neither refresh the hold
// register nor fire an emission.
//
// When to use:
//   - Reading out a sensor on an external sync pulse
//   - Snapshotting current state whenever a checkpoint event qualifies
//   - Converting a high-rate feed to on-demand reads without polling
//
// Example:
//
//	// Publish the latest temperature on every minute-boundary tick.
//	sampler := tempoz.NewTakeLatestWhen[Event[float64]](func(tick Event[time.Time]) bool {
//		return tick.Payload.Second() == 0
//	})
//	out := sampler.Process(ctx, temperature, ticks)
//
// Parameters:
//   - predicate: Decides whether an arriving trigger value fires an
//     emission. Runs outside the state lock; a panic is recovered and
//     logged, and that trigger is dropped.
func NewTakeLatestWhen[T Stamped[T], U Timed](predicate func(trigger U) bool) *TakeLatestWhen[T, U] {
	return &TakeLatestWhen[T, U]{
		name:      "take-latest-when",
		predicate: predicate,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "take-latest-when".
func (t *TakeLatestWhen[T, U]) WithName(name string) *TakeLatestWhen[T, U] {
	t.name = name
	return t
}

// WithLogger sets the logger used for callback-panic diagnostics.
// If not set, defaults to slog.Default().
func (t *TakeLatestWhen[T, U]) WithLogger(logger *slog.Logger) *TakeLatestWhen[T, U] {
	t.logger = logger
	return t
}

// Process samples the source on qualifying triggers. The output completes
// once both inputs have closed and buffered arrivals are processed.
func (t *TakeLatestWhen[T, U]) Process(ctx context.Context, source <-chan Result[T], trigger <-chan Result[U]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		mctx, cancel := context.WithCancel(ctx)
		defer cancel()

		tagged := []<-chan slotItem[T, U]{
			pumpSource[T, U](mctx, source),
			pumpOther[T](mctx, trigger, 1),
		}

		state := newCombinedState[T, U](1)

		runOrderedMerge(mctx, tagged, slotTime[T, U], func(item slotItem[T, U]) bool {
			if item.index == 0 {
				if item.source.IsError() {
					return sendResult(ctx, out, item.source)
				}
				state.observeSource(item.source.Value())
				return true
			}

			if item.other.IsError() {
				return sendResult(ctx, out, forwardError[U, T](item.other.Error()))
			}

			latest, held := state.observeValueAndSource(0, item.other.Value())
			fire, ok := guard(t.logger, t.name, func() bool { return t.predicate(item.other.Value()) })
			if !ok || !fire || !held {
				return true
			}

			sampled := NewSuccess(latest.WithTimestamp(item.at)).
				WithMetadata(MetadataOriginTime, latest.Timestamp())
			return sendResult(ctx, out, sampled)
		})
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (t *TakeLatestWhen[T, U]) Name() string {
	return t.name
}
