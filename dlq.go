package tempoz

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// dlqSendTimeout bounds how long the distributor waits on a blocked
// output before dropping the item. Keeps an unconsumed channel from
// deadlocking the whole stream.
const dlqSendTimeout = 10 * time.Millisecond

// DeadLetterQueue separates successful Results from failed Results into
// two distinct channels, enabling different downstream strategies for
// each. If either output channel is not consumed, items that cannot be
// sent within a short window are dropped, logged, and counted so a
// one-sided consumer never deadlocks the stream.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type DeadLetterQueue[T any] struct {
	name         string
	clock        Clock
	logger       *slog.Logger
	droppedCount atomic.Uint64
}

// NewDeadLetterQueue creates a processor that routes successes and
// failures to separate channels.
//
// Example:
//
//	// Separate successes and failures for different handling
//	dlq := tempoz.NewDeadLetterQueue[Order](tempoz.RealClock)
//	successes, failures := dlq.Process(ctx, orders)
//
//	go func() {
//		for success := range successes {
//			processOrder(success.Value())
//		}
//	}()
//
//	go func() {
//		for failure := range failures {
//			retryQueue.Send(failure)
//		}
//	}()
//
// Parameters:
//   - clock: Clock implementation for the blocked-send timeout
//
// Returns a new DeadLetterQueue processor with fluent configuration.
func NewDeadLetterQueue[T any](clock Clock) *DeadLetterQueue[T] {
	return &DeadLetterQueue[T]{
		name:   "dlq",
		clock:  clock,
		logger: slog.Default(),
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "dlq".
func (dlq *DeadLetterQueue[T]) WithName(name string) *DeadLetterQueue[T] {
	dlq.name = name
	return dlq
}

// WithLogger sets the logger used when items are dropped.
// If not set, defaults to slog.Default().
func (dlq *DeadLetterQueue[T]) WithLogger(logger *slog.Logger) *DeadLetterQueue[T] {
	if logger != nil {
		dlq.logger = logger
	}
	return dlq
}

// DroppedCount returns the number of items dropped because an output
// channel was not consumed in time.
func (dlq *DeadLetterQueue[T]) DroppedCount() uint64 {
	return dlq.droppedCount.Load()
}

// Process separates the input stream into success and failure channels.
// Both outputs close when the input closes or the context is canceled.
func (dlq *DeadLetterQueue[T]) Process(ctx context.Context, in <-chan Result[T]) (successes <-chan Result[T], failures <-chan Result[T]) {
	successCh := make(chan Result[T])
	failureCh := make(chan Result[T])

	go dlq.distribute(ctx, in, successCh, failureCh)

	return successCh, failureCh
}

// distribute routes items to the matching channel. A single goroutine
// owns both outputs so closes and sends never race.
func (dlq *DeadLetterQueue[T]) distribute(ctx context.Context, in <-chan Result[T], successCh, failureCh chan Result[T]) {
	defer close(successCh)
	defer close(failureCh)

	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-in:
			if !ok {
				return
			}

			if result.IsError() {
				dlq.send(ctx, result, failureCh, "failure")
			} else {
				dlq.send(ctx, result, successCh, "success")
			}
		}
	}
}

// send delivers one Result, dropping it if the channel stays blocked past
// the send timeout.
func (dlq *DeadLetterQueue[T]) send(ctx context.Context, result Result[T], ch chan Result[T], side string) {
	select {
	case ch <- result:
	case <-ctx.Done():
	case <-dlq.clock.After(dlqSendTimeout):
		dlq.droppedCount.Add(1)
		dlq.logger.Warn("dropped item from unconsumed channel",
			"operator", dlq.name,
			"side", side,
			"error", result.IsError())
	}
}

// Name returns the processor name for debugging and monitoring.
func (dlq *DeadLetterQueue[T]) Name() string {
	return dlq.name
}
