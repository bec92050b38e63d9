package tempoz

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// AggregateFunc combines values into a single aggregated state.
// It receives the current state and a new value, returning the updated state.
type AggregateFunc[T, A any] func(state A, item T) A

// AggregateWindow represents one emitted span of aggregated data.
type AggregateWindow[A any] struct { //nolint:govet // fieldalignment: struct layout optimized for readability
	// Result is the aggregated value for this window.
	Result A

	// Start is the window start time.
	Start time.Time

	// End is the window end time.
	End time.Time

	// Count is the number of values aggregated in this window.
	Count int
}

// Aggregate performs stateful aggregation over the values in a stream.
// It maintains an aggregate state updated with each value and emits
// windows based on configured triggers (count, time, or both). Error
// Results pass through immediately with their original attribution and
// never touch the aggregate state.
//
// When to use:
//   - Computing running statistics (sum, average, min, max)
//   - Time-based aggregations (per-minute totals, hourly counts)
//   - Custom incremental computation over streams
//
// Example:
//
//	// Sum values in 1-minute windows.
//	summer := tempoz.NewAggregate[int, int](0, tempoz.Sum[int](), tempoz.RealClock).
//		WithTimeWindow(time.Minute)
//
//	windows := summer.Process(ctx, numbers)
//	for window := range windows {
//		if window.IsError() {
//			continue
//		}
//		w := window.Value()
//		fmt.Printf("sum for %s: %d\n", w.Start.Format("15:04"), w.Result)
//	}
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Aggregate[T, A any] struct {
	name       string
	initial    A
	aggregator AggregateFunc[T, A]
	clock      Clock

	maxCount   int           // Emit after N values (0 = disabled).
	maxLatency time.Duration // Emit after duration (0 = disabled).
	emitEmpty  bool          // Whether time triggers emit windows with no data.

	mu       sync.RWMutex
	state    A
	count    int
	lastEmit time.Time
}

// NewAggregate creates a processor that performs stateful aggregation.
// The initial value provides the starting state; the aggregator updates
// the state with each new value. At least one trigger (WithCountWindow or
// WithTimeWindow) must be configured for periodic emission; a final
// window is always emitted when the input closes with pending data.
//
// Parameters:
//   - initial: The initial aggregate state
//   - aggregator: Function to update state with new values
//   - clock: Clock implementation for time-based triggers
//
// Returns a new Aggregate processor with fluent configuration methods.
func NewAggregate[T, A any](initial A, aggregator AggregateFunc[T, A], clock Clock) *Aggregate[T, A] {
	return &Aggregate[T, A]{
		initial:    initial,
		aggregator: aggregator,
		state:      initial,
		name:       "aggregate",
		clock:      clock,
	}
}

// WithCountWindow configures emission after a specific number of values.
// The aggregate state resets after each emission.
func (a *Aggregate[T, A]) WithCountWindow(count int) *Aggregate[T, A] {
	if count < 1 {
		count = 1
	}
	a.maxCount = count
	return a
}

// WithTimeWindow configures emission after a specific duration.
// The aggregate state resets after each emission.
func (a *Aggregate[T, A]) WithTimeWindow(duration time.Duration) *Aggregate[T, A] {
	if duration < 0 {
		duration = 0
	}
	a.maxLatency = duration
	return a
}

// WithEmptyWindows configures whether time triggers emit windows with no
// data. Useful when consumers want a heartbeat of zero-valued windows.
func (a *Aggregate[T, A]) WithEmptyWindows(emit bool) *Aggregate[T, A] {
	a.emitEmpty = emit
	return a
}

// WithName sets a custom name for this processor.
// If not set, defaults to "aggregate".
func (a *Aggregate[T, A]) WithName(name string) *Aggregate[T, A] {
	a.name = name
	return a
}

// Process aggregates values from the input stream and emits windowed
// results.
func (a *Aggregate[T, A]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[AggregateWindow[A]] {
	out := make(chan Result[AggregateWindow[A]])

	a.mu.Lock()
	a.state = a.initial
	a.count = 0
	a.lastEmit = a.clock.Now()
	a.mu.Unlock()

	go func() {
		defer close(out)

		var ticker Ticker
		var tickerC <-chan time.Time
		if a.maxLatency > 0 {
			ticker = a.clock.NewTicker(a.maxLatency)
			tickerC = ticker.C()
			defer ticker.Stop()
		}

		for {
			select {
			case item, ok := <-in:
				if !ok {
					a.mu.Lock()
					pending := a.count > 0
					window := a.windowLocked()
					a.mu.Unlock()
					if pending {
						sendResult(ctx, out, NewSuccess(window))
					}
					return
				}

				if item.IsError() {
					if !sendResult(ctx, out, forwardError[T, AggregateWindow[A]](item.Error())) {
						return
					}
					continue
				}

				a.mu.Lock()
				a.state = a.aggregator(a.state, item.Value())
				a.count++
				full := a.maxCount > 0 && a.count >= a.maxCount
				a.mu.Unlock()

				if full {
					if !a.emit(ctx, out) {
						return
					}
				}

			case <-tickerC:
				a.mu.RLock()
				hasData := a.count > 0
				a.mu.RUnlock()

				if hasData || a.emitEmpty {
					if !a.emit(ctx, out) {
						return
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// windowLocked builds the current window snapshot. Callers hold a.mu.
func (a *Aggregate[T, A]) windowLocked() AggregateWindow[A] {
	return AggregateWindow[A]{
		Result: a.state,
		Start:  a.lastEmit,
		End:    a.clock.Now(),
		Count:  a.count,
	}
}

// emit sends the current aggregate window and resets state.
func (a *Aggregate[T, A]) emit(ctx context.Context, out chan<- Result[AggregateWindow[A]]) bool {
	a.mu.Lock()
	window := a.windowLocked()
	a.state = a.initial
	a.count = 0
	a.lastEmit = window.End
	a.mu.Unlock()

	return sendResult(ctx, out, NewSuccess(window))
}

// GetCurrentState returns the current aggregate state for monitoring.
// This is a snapshot and may change immediately after returning.
func (a *Aggregate[T, A]) GetCurrentState() (state A, count int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state, a.count
}

// Name returns the processor name for debugging and monitoring.
func (a *Aggregate[T, A]) Name() string {
	return a.name
}

// Common aggregation functions.

// Sum returns an aggregator that sums numeric values.
func Sum[T ~int | ~int32 | ~int64 | ~float32 | ~float64]() AggregateFunc[T, T] {
	return func(sum, item T) T {
		return sum + item
	}
}

// Count returns an aggregator that counts values.
func Count[T any]() AggregateFunc[T, int] {
	return func(count int, _ T) int {
		return count + 1
	}
}

// Average maintains a running average.
type Average struct {
	Sum   float64
	Count int
}

// Avg returns an aggregator that computes the average of numeric values.
func Avg[T ~int | ~int32 | ~int64 | ~float32 | ~float64]() AggregateFunc[T, Average] {
	return func(avg Average, item T) Average {
		avg.Sum += float64(item)
		avg.Count++
		return avg
	}
}

// Value returns the computed average.
func (a Average) Value() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// MinMax tracks minimum and maximum values.
type MinMax[T comparable] struct {
	Min   T
	Max   T
	Count int
}

// MinMaxAgg returns an aggregator that tracks min and max values.
func MinMaxAgg[T ~int | ~int32 | ~int64 | ~float32 | ~float64]() AggregateFunc[T, MinMax[T]] {
	return func(mm MinMax[T], item T) MinMax[T] {
		if mm.Count == 0 {
			return MinMax[T]{Min: item, Max: item, Count: 1}
		}
		if item < mm.Min {
			mm.Min = item
		}
		if item > mm.Max {
			mm.Max = item
		}
		mm.Count++
		return mm
	}
}

// String returns a string representation of the min/max values.
func (mm MinMax[T]) String() string {
	return fmt.Sprintf("Min: %v, Max: %v, Count: %d", mm.Min, mm.Max, mm.Count)
}
