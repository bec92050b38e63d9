package tempoz

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors produced by operators whose documented semantics end or
// reject a stream.
var (
	// ErrTimeout is carried by the single terminal error Result a Timeout
	// operator emits when its watchdog expires.
	ErrTimeout = errors.New("stream timed out")

	// ErrCircuitOpen is carried by the error Results a CircuitBreaker emits
	// for values rejected while the circuit is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// StreamError represents an error that occurred during stream processing.
// It captures both the item that caused the error and the error itself,
// enabling better debugging and error handling strategies.
//
//nolint:govet // fieldalignment: struct layout optimized for readability over memory
type StreamError[T any] struct {
	// Item is the original item that caused the processing error.
	Item T

	// Err is the underlying error that occurred during processing.
	Err error

	// ProcessorName identifies which processor generated the error.
	ProcessorName string

	// Timestamp records when the error occurred. Ordering-sensitive
	// operators sequence error Results by this field, exactly like values.
	Timestamp time.Time
}

// NewStreamError creates a new StreamError with the current wall-clock
// timestamp. Operators holding a Clock should prefer NewStreamErrorAt with
// clock.Now() so fake-clock tests stay deterministic.
func NewStreamError[T any](item T, err error, processorName string) *StreamError[T] {
	return NewStreamErrorAt(item, err, processorName, time.Now())
}

// NewStreamErrorAt creates a new StreamError with an explicit timestamp.
func NewStreamErrorAt[T any](item T, err error, processorName string, at time.Time) *StreamError[T] {
	return &StreamError[T]{
		Item:          item,
		Err:           err,
		ProcessorName: processorName,
		Timestamp:     at,
	}
}

// String returns a human-readable representation of the error.
func (se *StreamError[T]) String() string {
	return fmt.Sprintf("StreamError[%s]: %v (item: %v, time: %s)",
		se.ProcessorName, se.Err, se.Item, se.Timestamp.Format(time.RFC3339))
}

// Unwrap returns the underlying error, enabling error wrapping chains.
func (se *StreamError[T]) Unwrap() error {
	return se.Err
}

// Error implements the error interface.
func (se *StreamError[T]) Error() string {
	return se.String()
}

// forwardError converts a StreamError across an operator's type boundary so
// it can keep flowing downstream unchanged in meaning. Err, ProcessorName
// and Timestamp survive the crossing; the typed Item cannot and is zeroed.
func forwardError[From, To any](se *StreamError[From]) Result[To] {
	var zero To
	return Result[To]{err: &StreamError[To]{
		Item:          zero,
		Err:           se.Err,
		ProcessorName: se.ProcessorName,
		Timestamp:     se.Timestamp,
	}}
}
