// Package tempoz provides temporally ordered, composable stream combinators
// that work with Go channels: multiple asynchronous event sources can be
// merged and combined into derived streams while preserving a well-defined
// timestamp order, with values and errors flowing as first-class data.
//
// Go channels are the consumer protocol throughout: a blocked receive means
// "not ready yet", a received Result means "here is the next item", and a
// closed channel means "there will be no more items". Operators never assume
// push delivery; demand flows upstream one receive at a time.
//
// Basic usage:
//
//	ctx := context.Background()
//
//	// Merge two timestamp-sorted sensor feeds into one sorted stream.
//	merge := tempoz.NewOrderedMerge[Reading]()
//	sorted := merge.Process(ctx, tempFeed, humidityFeed)
//
//	// Combine the latest value of each feed whenever either updates.
//	combine := tempoz.NewCombineLatest(func(latest []Reading) Summary {
//		return summarize(latest)
//	})
//	combined := combine.Process(ctx, tempFeed, humidityFeed)
//
//	for result := range combined {
//		if result.IsError() {
//			log.Printf("upstream error: %v", result.Error())
//			continue
//		}
//		publish(result.Value())
//	}
//
// The package provides operators for common temporal patterns:
//   - Ordered and unordered multi-way merging
//   - Latest-value combination (CombineLatest, WithLatestFrom, EmitWhen,
//     TakeLatestWhen, TakeWhileWith)
//   - Time-bound flow control (Delay, Debounce, Throttle, Sample, Timeout)
//   - Windowing and batching
//   - Filtering, mapping, deduplication
//   - Fan-in, fan-out and cooperative cancellation
//
// Every time-bound operator takes a Clock, so a single implementation runs
// unchanged against the real clock in production and a fake clock in tests.
package tempoz

import (
	"context"
	"time"
)

// Processor is the core interface for single-input stream operators.
// It transforms an input channel of type In to an output channel of type Out.
// Processors should:
//   - Close the output channel when the input channel is closed
//   - Respect context cancellation
//   - Propagate error Results downstream rather than swallowing them
//   - Be safe for concurrent use
//
// Multi-input operators (OrderedMerge, CombineLatest, ...) follow the same
// constructor/Process/Name shape with additional input parameters.
type Processor[In, Out any] interface {
	// Process transforms the input channel to an output channel.
	// It should close the output channel when processing is complete.
	Process(ctx context.Context, in <-chan In) <-chan Out

	// Name returns a descriptive name for the processor, useful for debugging.
	Name() string
}

// BatchConfig configures batching behavior for the Batcher processor.
type BatchConfig struct {
	// MaxLatency is the maximum time to wait before emitting a partial batch.
	// If set, a batch will be emitted after this duration even if it's not full.
	MaxLatency time.Duration

	// MaxSize is the maximum number of items in a batch.
	// A batch is emitted immediately when it reaches this size.
	MaxSize int
}
