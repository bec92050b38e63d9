package tempoz

import (
	"context"
	"sync/atomic"
)

// SplitOutput provides access to the two output channels from a split
// operation. The True channel receives Results whose values satisfy the
// predicate, the False channel receives the rest.
type SplitOutput[T any] struct {
	// True receives Results where the predicate returns true.
	True <-chan Result[T]

	// False receives Results where the predicate returns false,
	// plus all error Results.
	False <-chan Result[T]
}

// Split divides a stream into exactly two outputs based on a predicate.
// Values satisfying the predicate go to the True output; the rest go to
// the False output. Error Results bypass the predicate and route to the
// False side, since an error carries no value for the predicate to
// affirm.
//
// Split is simpler than key-based partitioning when you need binary
// classification: valid/invalid separation, pass/fail routing, binary
// decision trees.
//
// Example:
//
//	// Split orders into high/low value
//	splitter := tempoz.NewSplit[Order](func(o Order) bool {
//		return o.Total > 1000
//	})
//
//	outputs := splitter.Process(ctx, orders)
//
//	go processHighValue(outputs.True)
//	go processNormal(outputs.False)
//
// Both output channels should be consumed concurrently; an unconsumed
// side blocks the splitter.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Split[T any] struct {
	name       string
	predicate  func(T) bool
	bufferSize int

	trueCount  atomic.Int64
	falseCount atomic.Int64
	totalCount atomic.Int64
}

// NewSplit creates a processor that splits Results into two streams based
// on a predicate over successful values.
//
// Default configuration:
//   - Buffer size: 0 (unbuffered channels)
//   - Name: "split"
//
// Parameters:
//   - predicate: Function that classifies each value
//
// Returns a new Split processor with fluent configuration methods.
func NewSplit[T any](predicate func(T) bool) *Split[T] {
	return &Split[T]{
		predicate: predicate,
		name:      "split",
	}
}

// WithBufferSize sets the buffer size for both output channels. A larger
// buffer can absorb consumers that drain at different speeds.
func (s *Split[T]) WithBufferSize(size int) *Split[T] {
	if size < 0 {
		size = 0
	}
	s.bufferSize = size
	return s
}

// WithName sets a custom name for this processor.
// If not set, defaults to "split".
func (s *Split[T]) WithName(name string) *Split[T] {
	s.name = name
	return s
}

// Process splits the input stream into two outputs based on the predicate.
func (s *Split[T]) Process(ctx context.Context, in <-chan Result[T]) SplitOutput[T] {
	trueOut := make(chan Result[T], s.bufferSize)
	falseOut := make(chan Result[T], s.bufferSize)

	go func() {
		defer close(trueOut)
		defer close(falseOut)

		for {
			select {
			case item, ok := <-in:
				if !ok {
					return
				}

				s.totalCount.Add(1)

				target := falseOut
				if item.IsSuccess() && s.predicate(item.Value()) {
					s.trueCount.Add(1)
					target = trueOut
				} else {
					s.falseCount.Add(1)
				}

				select {
				case target <- item:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return SplitOutput[T]{
		True:  trueOut,
		False: falseOut,
	}
}

// GetStats returns statistics about the split distribution.
func (s *Split[T]) GetStats() SplitStats {
	total := s.totalCount.Load()
	trueCount := s.trueCount.Load()
	falseCount := s.falseCount.Load()

	var trueRatio, falseRatio float64
	if total > 0 {
		trueRatio = float64(trueCount) / float64(total)
		falseRatio = float64(falseCount) / float64(total)
	}

	return SplitStats{
		TotalItems: total,
		TrueCount:  trueCount,
		FalseCount: falseCount,
		TrueRatio:  trueRatio,
		FalseRatio: falseRatio,
	}
}

// Name returns the processor name for debugging and monitoring.
func (s *Split[T]) Name() string {
	return s.name
}

// SplitStats contains statistics about split distribution.
type SplitStats struct {
	TotalItems int64   // Total items processed
	TrueCount  int64   // Items sent to True output
	FalseCount int64   // Items sent to False output
	TrueRatio  float64 // Fraction sent to True (0.0-1.0)
	FalseRatio float64 // Fraction sent to False (0.0-1.0)
}
