package tempoz

import (
	"fmt"
	"time"
)

// Result represents either a successful value or an error in stream
// processing. Errors are data, not terminal signals: an upstream may keep
// producing values after emitting an error, and every operator propagates
// error Results downstream unless its documented semantics end the stream.
// Metadata support carries context through stream processing pipelines.
type Result[T any] struct {
	value    T
	err      *StreamError[T]
	metadata map[string]interface{} // nil by default for zero overhead
}

// NewSuccess creates a Result containing a successful value.
func NewSuccess[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// NewError creates a Result containing an error.
func NewError[T any](item T, err error, processorName string) Result[T] {
	return Result[T]{err: NewStreamError(item, err, processorName)}
}

// NewErrorAt creates a Result containing an error stamped with an explicit
// time. Clock-driven operators use this so error timestamps come from the
// injected Clock rather than the wall clock.
func NewErrorAt[T any](item T, err error, processorName string, at time.Time) Result[T] {
	return Result[T]{err: NewStreamErrorAt(item, err, processorName, at)}
}

// IsError returns true if this Result contains an error.
func (r Result[T]) IsError() bool {
	return r.err != nil
}

// IsSuccess returns true if this Result contains a successful value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the successful value.
// Panics if called on a Result containing an error - always check IsSuccess() first.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic("called Value() on Result containing an error")
	}
	return r.value
}

// Error returns the StreamError.
// Returns nil if this Result contains a successful value.
func (r Result[T]) Error() *StreamError[T] {
	return r.err
}

// ValueOr returns the successful value if present, otherwise returns the fallback.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Map applies a function to the value if this Result is successful.
// If this Result contains an error, returns the error unchanged.
// Metadata is preserved through successful transformations.
func (r Result[T]) Map(fn func(T) T) Result[T] {
	if r.err != nil {
		return r
	}

	result := NewSuccess(fn(r.value))
	result.metadata = r.metadata
	return result
}

// MapError applies a function to transform the error if this Result contains
// an error. If this Result is successful, returns the success value unchanged.
// Metadata is preserved through error transformations.
func (r Result[T]) MapError(fn func(*StreamError[T]) *StreamError[T]) Result[T] {
	if r.err == nil {
		return r
	}

	return Result[T]{
		value:    r.value,
		err:      fn(r.err),
		metadata: r.metadata,
	}
}

// Standard metadata keys for common use cases.
const (
	MetadataSource     = "source"      // string - data source identifier
	MetadataTimestamp  = "timestamp"   // time.Time - processing timestamp
	MetadataProcessor  = "processor"   // string - processor that added metadata
	MetadataRetryCount = "retry_count" // int - number of retries attempted
	MetadataOriginTime = "origin_time" // time.Time - original event time before restamping
)

// WithMetadata returns a new Result with the specified metadata key-value
// pair. The original Result is unchanged; multiple calls can be chained.
// Empty keys are ignored to prevent silent lookup failures later.
func (r Result[T]) WithMetadata(key string, value interface{}) Result[T] {
	if key == "" {
		return r
	}

	var newMetadata map[string]interface{}
	if r.metadata == nil {
		newMetadata = map[string]interface{}{key: value}
	} else {
		newMetadata = make(map[string]interface{}, len(r.metadata)+1)
		for k, v := range r.metadata {
			newMetadata[k] = v
		}
		newMetadata[key] = value
	}

	return Result[T]{
		value:    r.value,
		err:      r.err,
		metadata: newMetadata,
	}
}

// GetMetadata retrieves a metadata value by key.
// Returns the value and true if the key exists, nil and false otherwise.
// The caller must type-assert the returned value to the expected type.
func (r Result[T]) GetMetadata(key string) (interface{}, bool) {
	if r.metadata == nil {
		return nil, false
	}
	value, exists := r.metadata[key]
	return value, exists
}

// HasMetadata returns true if this Result contains any metadata.
func (r Result[T]) HasMetadata() bool {
	return len(r.metadata) > 0
}

// MetadataKeys returns all metadata keys for this Result.
// Returns empty slice if no metadata present.
func (r Result[T]) MetadataKeys() []string {
	if r.metadata == nil {
		return []string{}
	}

	keys := make([]string, 0, len(r.metadata))
	for key := range r.metadata {
		keys = append(keys, key)
	}
	return keys
}

// GetStringMetadata retrieves string metadata with enhanced type safety.
// Returns: (value, found, error)
//   - found=false, error=nil: key not present
//   - found=false, error!=nil: key present but wrong type
//   - found=true, error=nil: successful retrieval.
func (r Result[T]) GetStringMetadata(key string) (value string, found bool, err error) {
	metaValue, exists := r.GetMetadata(key)
	if !exists {
		return "", false, nil
	}
	str, ok := metaValue.(string)
	if !ok {
		return "", false, fmt.Errorf("metadata key %q has type %T, expected string", key, metaValue)
	}
	return str, true, nil
}

// GetTimeMetadata retrieves time.Time metadata with enhanced type safety.
func (r Result[T]) GetTimeMetadata(key string) (time.Time, bool, error) {
	value, exists := r.GetMetadata(key)
	if !exists {
		return time.Time{}, false, nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return time.Time{}, false, fmt.Errorf("metadata key %q has type %T, expected time.Time", key, value)
	}
	return t, true, nil
}

// GetIntMetadata retrieves int metadata with enhanced type safety.
func (r Result[T]) GetIntMetadata(key string) (value int, found bool, err error) {
	metaValue, exists := r.GetMetadata(key)
	if !exists {
		return 0, false, nil
	}
	i, ok := metaValue.(int)
	if !ok {
		return 0, false, fmt.Errorf("metadata key %q has type %T, expected int", key, metaValue)
	}
	return i, true, nil
}

// GetDurationMetadata retrieves time.Duration metadata with enhanced type safety.
func (r Result[T]) GetDurationMetadata(key string) (time.Duration, bool, error) {
	value, exists := r.GetMetadata(key)
	if !exists {
		return 0, false, nil
	}
	duration, ok := value.(time.Duration)
	if !ok {
		return 0, false, fmt.Errorf("metadata key %q has type %T, expected time.Duration", key, value)
	}
	return duration, true, nil
}
