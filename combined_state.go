package tempoz

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// slotItem is one tagged arrival inside a stateful combinator. Every input
// is pumped into a stream of these so the ordered-merge core can hand
// arrivals from all inputs to a single consume loop in timestamp order,
// which is what makes "the latest value at that instant" causally exact.
// The index identifies which input produced the arrival. Combinators with a
// distinguished source/primary input tag it index 0 via pumpSource and the
// rest 1..N via pumpOther; homogeneous combinators tag every input via
// pumpOther with its slot index.
type slotItem[T, U any] struct {
	at     time.Time
	index  int
	source Result[T] // populated by pumpSource
	other  Result[U] // populated by pumpOther
}

// pumpSource tags the source/primary input as index 0.
func pumpSource[T Timed, U any](ctx context.Context, in <-chan Result[T]) <-chan slotItem[T, U] {
	ch := make(chan slotItem[T, U])

	go func() {
		defer close(ch)

		for {
			select {
			case r, ok := <-in:
				if !ok {
					return
				}
				item := slotItem[T, U]{at: resultTime(r), index: 0, source: r}
				select {
				case ch <- item:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// pumpOther tags one secondary/condition/trigger input with its index.
func pumpOther[T any, U Timed](ctx context.Context, in <-chan Result[U], index int) <-chan slotItem[T, U] {
	ch := make(chan slotItem[T, U])

	go func() {
		defer close(ch)

		for {
			select {
			case r, ok := <-in:
				if !ok {
					return
				}
				item := slotItem[T, U]{at: resultTime(r), index: index, other: r}
				select {
				case ch <- item:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// slotTime is the ordering key for tagged arrivals.
func slotTime[T, U any](item slotItem[T, U]) time.Time {
	return item.at
}

// combinedState is the accumulator shared by the stateful combinator
// family: one slot per input holding the latest value seen, plus an
// optional distinguished source slot (S is struct{} for homogeneous
// operators with no distinguished input). Created once per Process call,
// mutated on every upstream value, never reset.
//
// One mutex guards the whole state. The access discipline is: write the
// arriving slot and read whatever the emission decision needs in the same
// critical section, and never hold the lock across a channel send. User
// callbacks run outside the lock on a snapshot copy.
type combinedState[S, V any] struct {
	mu        sync.Mutex
	source    S
	hasSource bool
	values    []V
	seen      []bool
	unseen    int
}

func newCombinedState[S, V any](n int) *combinedState[S, V] {
	return &combinedState[S, V]{
		values: make([]V, n),
		seen:   make([]bool, n),
		unseen: n,
	}
}

// observeValue records the latest value for slot i.
func (s *combinedState[S, V]) observeValue(i int, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(i, v)
}

// observeValueAndSnapshot records slot i, then reports whether every value
// slot has been seen at least once and, if so, a snapshot of all of them.
func (s *combinedState[S, V]) observeValueAndSnapshot(i int, v V) (complete bool, snapshot []V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(i, v)
	if s.unseen > 0 {
		return false, nil
	}
	return true, s.snapshotLocked()
}

// observeSource records the latest source value.
func (s *combinedState[S, V]) observeSource(v S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = v
	s.hasSource = true
}

// observeSourceAndSnapshot records the source value, then reports whether
// every value slot has been seen and, if so, a snapshot of them.
func (s *combinedState[S, V]) observeSourceAndSnapshot(v S) (complete bool, snapshot []V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = v
	s.hasSource = true
	if s.unseen > 0 {
		return false, nil
	}
	return true, s.snapshotLocked()
}

// observeValueAndSource records slot i, then reads the latest source value
// in the same critical section.
func (s *combinedState[S, V]) observeValueAndSource(i int, v V) (source S, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(i, v)
	return s.source, s.hasSource
}

func (s *combinedState[S, V]) setLocked(i int, v V) {
	s.values[i] = v
	if !s.seen[i] {
		s.seen[i] = true
		s.unseen--
	}
}

func (s *combinedState[S, V]) snapshotLocked() []V {
	snapshot := make([]V, len(s.values))
	copy(snapshot, s.values)
	return snapshot
}

// guard runs a user-supplied callback with panic recovery. A panicking
// selector or predicate must not take down the whole pipeline: the
// combinator logs the panic and continues from its last consistent state,
// trading strict error visibility for liveness.
func guard[Out any](logger *slog.Logger, operator string, fn func() Out) (out Out, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("stream callback panicked, keeping last consistent state",
				"operator", operator,
				"panic", r)
			ok = false
		}
	}()
	return fn(), true
}

// sendResult delivers one Result downstream, honoring cancellation.
func sendResult[R any](ctx context.Context, out chan<- Result[R], r Result[R]) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
