package tempoz

import (
	"context"
)

// Mapper transforms each successful value in a stream from one type to
// another using a mapping function. Mapping failures become error Results
// attributed to this processor; upstream errors flow through with their
// original attribution intact.
type Mapper[In, Out any] struct {
	fn   func(context.Context, In) (Out, error)
	name string
}

// NewMapper creates a processor that transforms values from one type to
// another. This is the fundamental transformation operation, allowing
// type-safe conversions and data enrichment throughout the pipeline.
//
// A failed mapping emits an error Result carrying the mapping error and
// this processor's name. Upstream error Results are not re-mapped: they
// cross the type boundary with their error, processor attribution, and
// timestamp preserved and a zeroed item, so downstream consumers still see
// where the failure originated.
//
// When to use:
//   - Type conversions between data representations
//   - Extracting fields or computing derived values
//   - Normalizing data formats
//   - Validating while transforming (return an error to reject)
//
// Example:
//
//	// Extract the payload magnitude from readings.
//	magnitude := tempoz.NewMapper(func(_ context.Context, r Reading) (float64, error) {
//		if math.IsNaN(r.Value) {
//			return 0, fmt.Errorf("reading %s has no value", r.ID)
//		}
//		return math.Abs(r.Value), nil
//	})
//	magnitudes := magnitude.Process(ctx, readings)
//
// Parameters:
//   - fn: Transformation function from input to output type
//
// Returns a new Mapper with fluent configuration methods.
func NewMapper[In, Out any](fn func(context.Context, In) (Out, error)) *Mapper[In, Out] {
	return &Mapper[In, Out]{
		fn:   fn,
		name: "mapper",
	}
}

// WithName sets a custom name for this processor.
// Mapping errors are attributed to this name. If not set, defaults to
// "mapper".
func (m *Mapper[In, Out]) WithName(name string) *Mapper[In, Out] {
	m.name = name
	return m
}

// Process transforms the input stream. Successful values are mapped;
// errors are forwarded converted to the output type.
func (m *Mapper[In, Out]) Process(ctx context.Context, in <-chan Result[In]) <-chan Result[Out] {
	out := make(chan Result[Out])

	go func() {
		defer close(out)

		for item := range in {
			var mapped Result[Out]
			if item.IsError() {
				mapped = forwardError[In, Out](item.Error())
			} else if value, err := m.fn(ctx, item.Value()); err != nil {
				mapped = NewError(value, err, m.name)
			} else {
				mapped = NewSuccess(value)
			}

			select {
			case out <- mapped:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (m *Mapper[In, Out]) Name() string {
	return m.name
}
