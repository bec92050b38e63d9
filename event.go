package tempoz

import "time"

// Timed is the capability required of items flowing through order-aware
// operators: anything that exposes an orderable point in time. Timestamps
// from a single logical source must be monotonically non-decreasing; the
// engine interleaves across sources but never re-sorts within one.
type Timed interface {
	// Timestamp returns the item's point in (logical or real) time.
	Timestamp() time.Time
}

// Stamped extends Timed with the ability to rebuild the item around a new
// timestamp. Operators that restamp emissions with the timestamp of the
// input that causally drove them (TakeLatestWhen, CombineLatest selectors)
// require this capability on their output type. The constraint is
// self-referential so restamping stays fully typed:
//
//	func NewTakeLatestWhen[T Stamped[T], U Timed](...)
type Stamped[T any] interface {
	Timed

	// WithTimestamp returns a copy of the item carrying the given timestamp.
	WithTimestamp(time.Time) T
}

// Event is the canonical Stamped carrier: a payload tagged with the time it
// was observed. Any user type implementing Timed/Stamped works equally well;
// Event exists so callers don't have to define a wrapper for the common case.
type Event[V any] struct {
	// Payload is the inner value, extracted with no further ceremony.
	Payload V

	// At is the event's timestamp. Orderable, never used for audit history;
	// restamping operators preserve the original under MetadataOriginTime.
	At time.Time
}

// NewEvent constructs an Event from an inner value plus a timestamp.
func NewEvent[V any](payload V, at time.Time) Event[V] {
	return Event[V]{Payload: payload, At: at}
}

// Timestamp returns the event's timestamp.
func (e Event[V]) Timestamp() time.Time {
	return e.At
}

// WithTimestamp returns a copy of the event carrying the given timestamp.
func (e Event[V]) WithTimestamp(at time.Time) Event[V] {
	e.At = at
	return e
}

// resultTime extracts the ordering timestamp of a Result: the value's own
// timestamp for successes, the StreamError timestamp for errors. Error items
// are ordinary items for sequencing purposes.
func resultTime[T Timed](r Result[T]) time.Time {
	if r.IsError() {
		return r.Error().Timestamp
	}
	return r.Value().Timestamp()
}
