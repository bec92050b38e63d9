package tempoz

import (
	"context"
	"runtime"
	"sync"
)

// AsyncMapper processes Results concurrently using multiple worker
// goroutines. It supports both ordered processing (preserving input
// sequence) and unordered processing (emitting results as they complete).
// This enables parallelization of CPU-intensive or I/O-bound operations
// while maintaining flexibility in ordering requirements.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type AsyncMapper[In, Out any] struct {
	name       string
	fn         func(context.Context, In) (Out, error)
	workers    int
	ordered    bool
	bufferSize int
}

// NewAsyncMapper creates a processor that executes transformations
// concurrently. By default, it preserves input order and uses
// runtime.NumCPU() workers. Use the fluent API to configure behavior like
// worker count and ordering.
//
// When to use:
//   - CPU-intensive transformations (image processing, encryption)
//   - I/O-bound operations (API calls, database queries)
//   - Parallel enrichment while optionally maintaining sequence
//   - Speeding up independent transformations
//
// Example:
//
//	// Parallel API enrichment with preserved order
//	enricher := tempoz.NewAsyncMapper(func(ctx context.Context, id string) (User, error) {
//		// Each API call happens in parallel
//		return fetchUserFromAPI(ctx, id)
//	})
//
//	// Custom worker count for rate-limited APIs
//	enricher := tempoz.NewAsyncMapper(func(ctx context.Context, id string) (User, error) {
//		return fetchUserFromAPI(ctx, id)
//	}).WithWorkers(10)
//
//	// Unordered processing for maximum throughput
//	processor := tempoz.NewAsyncMapper(func(ctx context.Context, img Image) (Thumbnail, error) {
//		return generateThumbnail(ctx, img)
//	}).WithOrdered(false).WithWorkers(runtime.NumCPU())
//
//	results := processor.Process(ctx, input)
//	for result := range results {
//		if result.IsError() {
//			log.Printf("processing error: %v", result.Error())
//		} else {
//			fmt.Printf("result: %+v\n", result.Value())
//		}
//	}
//
// Parameters:
//   - fn: Transformation function that can be safely executed concurrently
//
// Returns a new AsyncMapper processor with fluent configuration.
func NewAsyncMapper[In, Out any](fn func(context.Context, In) (Out, error)) *AsyncMapper[In, Out] {
	return &AsyncMapper[In, Out]{
		name:       "async-mapper",
		fn:         fn,
		workers:    runtime.NumCPU(),
		ordered:    true,
		bufferSize: 100,
	}
}

// WithWorkers sets the number of concurrent workers.
// If not set, defaults to runtime.NumCPU().
func (a *AsyncMapper[In, Out]) WithWorkers(workers int) *AsyncMapper[In, Out] {
	if workers > 0 {
		a.workers = workers
	}
	return a
}

// WithOrdered controls whether output preserves input order. If ordered
// (the default), output items maintain their input sequence despite
// variable processing times. If not, results are emitted as they complete.
func (a *AsyncMapper[In, Out]) WithOrdered(ordered bool) *AsyncMapper[In, Out] {
	a.ordered = ordered
	return a
}

// WithBufferSize sets the in-flight buffer between the sequencer and the
// workers, which bounds memory when processing times vary significantly.
// Only affects ordered mode. Defaults to 100.
func (a *AsyncMapper[In, Out]) WithBufferSize(size int) *AsyncMapper[In, Out] {
	if size > 0 {
		a.bufferSize = size
	}
	return a
}

// WithName sets a custom name for this processor.
// If not set, defaults to "async-mapper".
func (a *AsyncMapper[In, Out]) WithName(name string) *AsyncMapper[In, Out] {
	a.name = name
	return a
}

// sequenced tracks a Result with its input position for reordering.
type sequenced[T any] struct {
	result Result[T]
	seq    uint64
}

// Process transforms input Results concurrently across multiple workers.
// Error Results are forwarded unchanged with their original attribution;
// in ordered mode they keep their position in the sequence. Failed
// transformations become error Results naming this processor.
func (a *AsyncMapper[In, Out]) Process(ctx context.Context, in <-chan Result[In]) <-chan Result[Out] {
	if a.ordered {
		return a.processOrdered(ctx, in)
	}
	return a.processUnordered(ctx, in)
}

// apply runs the transformation for one Result. Errors already in the
// stream cross the type boundary via forwardError, untouched by fn.
func (a *AsyncMapper[In, Out]) apply(ctx context.Context, item Result[In]) Result[Out] {
	if item.IsError() {
		return forwardError[In, Out](item.Error())
	}
	mapped, err := a.fn(ctx, item.Value())
	if err != nil {
		return NewError(mapped, err, a.name)
	}
	return NewSuccess(mapped)
}

func (a *AsyncMapper[In, Out]) processUnordered(ctx context.Context, in <-chan Result[In]) <-chan Result[Out] {
	out := make(chan Result[Out])

	go func() {
		defer close(out)

		work := make(chan Result[In], a.workers)

		var wg sync.WaitGroup
		for i := 0; i < a.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for item := range work {
					if !sendResult(ctx, out, a.apply(ctx, item)) {
						return
					}
				}
			}()
		}

		go func() {
			defer close(work)
			for item := range in {
				select {
				case work <- item:
				case <-ctx.Done():
					return
				}
			}
		}()

		wg.Wait()
	}()

	return out
}

func (a *AsyncMapper[In, Out]) processOrdered(ctx context.Context, in <-chan Result[In]) <-chan Result[Out] {
	work := make(chan sequenced[In], a.bufferSize)
	results := make(chan sequenced[Out], a.workers)
	out := make(chan Result[Out])

	go func() {
		defer close(work)
		var seq uint64
		for item := range in {
			select {
			case work <- sequenced[In]{result: item, seq: seq}:
				seq++
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				select {
				case results <- sequenced[Out]{result: a.apply(ctx, item.result), seq: item.seq}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(out)

		pending := make(map[uint64]Result[Out])
		var nextSeq uint64

		for item := range results {
			pending[item.seq] = item.result

			for {
				result, ok := pending[nextSeq]
				if !ok {
					break
				}
				delete(pending, nextSeq)
				nextSeq++
				if !sendResult(ctx, out, result) {
					return
				}
			}
		}

		// A cancelled worker can leave gaps; emit what remains in order.
		for seq := nextSeq; len(pending) > 0; seq++ {
			result, ok := pending[seq]
			if !ok {
				continue
			}
			delete(pending, seq)
			if !sendResult(ctx, out, result) {
				return
			}
		}
	}()

	return out
}

// Name returns the processor name for debugging and monitoring.
func (a *AsyncMapper[In, Out]) Name() string {
	return a.name
}
