package tempoz

import (
	"context"
	"time"
)

// mergeSource tracks one input of an ordered merge: the channel itself, a
// single-slot head buffer, and whether the input has been exhausted.
type mergeSource[A any] struct {
	ch   <-chan A
	head A
	full bool
	done bool
}

// runOrderedMerge is the ordered-merge core shared by OrderedMerge and the
// stateful combinator family. It repeatedly fills the head slot of every
// open input (blocking until each delivers - an input that stays silent
// legitimately stalls the merge, which is back-pressure, not a bug), then
// hands the earliest head to emit. Ties resolve to the lowest input index,
// so output order is a deterministic function of input contents alone.
//
// emit returns false to stop the merge early (context cancelled or the
// consumer reached a terminal state). The merge returns once all inputs are
// exhausted and every head slot has been emitted.
func runOrderedMerge[A any](ctx context.Context, ins []<-chan A, at func(A) time.Time, emit func(A) bool) {
	srcs := make([]mergeSource[A], len(ins))
	for i := range ins {
		srcs[i].ch = ins[i]
	}

	for {
		for i := range srcs {
			s := &srcs[i]
			if s.done || s.full {
				continue
			}
			select {
			case item, ok := <-s.ch:
				if !ok {
					s.done = true
					continue
				}
				s.head = item
				s.full = true
			case <-ctx.Done():
				return
			}
		}

		min := -1
		for i := range srcs {
			if !srcs[i].full {
				continue
			}
			if min < 0 || at(srcs[i].head).Before(at(srcs[min].head)) {
				min = i
			}
		}
		if min < 0 {
			// All inputs exhausted, no heads left.
			return
		}

		if !emit(srcs[min].head) {
			return
		}
		srcs[min].full = false
	}
}

// OrderedMerge merges multiple timestamp-sorted Result[T] streams into a
// single stream whose items appear in non-decreasing timestamp order. Where
// FanIn interleaves by availability, OrderedMerge interleaves by time: for
// any two items emitted, the one with the smaller timestamp comes first,
// with ties broken deterministically by input index.
//
// Error Results are ordinary items for sequencing purposes - they carry the
// StreamError timestamp and are merged into position exactly like values,
// without stopping the other inputs.
type OrderedMerge[T Timed] struct {
	name string
}

// NewOrderedMerge creates a processor that interleaves timestamp-sorted
// streams into one globally sorted stream. Each input contributes a single
// buffered head at a time; the engine emits the earliest head and refills.
// Because no item can be emitted until every open input has produced its
// next head, an input that stays silent stalls the merge until it produces
// or closes - the deterministic price of a total output order.
//
// When to use:
//   - Replaying multiple event logs in global timestamp order
//   - Feeding order-sensitive combinators from independent sources
//   - Merging sensor feeds whose consumers assume monotonic time
//   - Deterministic reprocessing where availability order must not matter
//
// Example:
//
//	merge := tempoz.NewOrderedMerge[Event[Reading]]()
//	sorted := merge.Process(ctx, sensorA, sensorB, sensorC)
//
//	for result := range sorted {
//		// Timestamps never decrease here, regardless of which
//		// sensor delivered first.
//		handle(result)
//	}
//
// Zero inputs complete immediately. The output completes once every input
// has closed and all buffered heads are emitted.
func NewOrderedMerge[T Timed]() *OrderedMerge[T] {
	return &OrderedMerge[T]{
		name: "ordered-merge",
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "ordered-merge".
func (m *OrderedMerge[T]) WithName(name string) *OrderedMerge[T] {
	m.name = name
	return m
}

// Process merges the input streams into one timestamp-ordered output.
// Memory is O(N) buffered items and each emission costs an O(N) head scan;
// fan-in counts here are expected to be small handfuls of streams.
func (m *OrderedMerge[T]) Process(ctx context.Context, ins ...<-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		runOrderedMerge(ctx, ins, resultTime[T], func(r Result[T]) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (m *OrderedMerge[T]) Name() string {
	return m.name
}
