package tempoz

import (
	"context"
	"sync"
)

// FanIn merges multiple Result[T] input channels into a single output
// channel by availability: whichever input delivers next is forwarded next.
// It implements the fan-in concurrency pattern with no ordering guarantee
// across inputs - use OrderedMerge when downstream consumers depend on
// non-decreasing timestamps.
type FanIn[T any] struct {
	name string
}

// NewFanIn creates a processor that merges multiple Result[T] channels into
// one unified stream. Both successful values and errors flow through the
// single output, eliminating dual-channel error handling.
//
// Unlike OrderedMerge, FanIn never waits for a slow input: items are
// forwarded as soon as any input produces them. That makes it the right
// tool when latency matters more than cross-source ordering, and the wrong
// tool when a downstream operator assumes monotonic timestamps.
//
// When to use:
//   - Aggregating results from parallel workers that may fail
//   - Consolidating independent event streams where arrival order is fine
//   - Load-balancing consumer implementations
//
// Example:
//
//	fanin := tempoz.NewFanIn[Event]()
//	merged := fanin.Process(ctx,
//		serviceA.Events(),
//		serviceB.Events(),
//		serviceC.Events())
//
//	for result := range merged {
//		if result.IsError() {
//			log.Printf("fan-in error: %v", result.Error())
//			continue
//		}
//		processEvent(result.Value())
//	}
//
// Returns a new FanIn processor for merging multiple Result streams.
func NewFanIn[T any]() *FanIn[T] {
	return &FanIn[T]{
		name: "fanin",
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "fanin".
func (f *FanIn[T]) WithName(name string) *FanIn[T] {
	f.name = name
	return f
}

// Process merges the input channels into a single Result[T] channel.
// The output closes once every input has closed.
func (*FanIn[T]) Process(ctx context.Context, ins ...<-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])
	var wg sync.WaitGroup

	for _, in := range ins {
		wg.Add(1)
		go func(ch <-chan Result[T]) {
			defer wg.Done()
			for result := range ch {
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
		}(in)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (f *FanIn[T]) Name() string {
	return f.name
}
