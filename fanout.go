package tempoz

import (
	"context"
)

// FanOut duplicates every Result from one input to a fixed number of
// output channels, enabling independent downstream branches over the same
// stream.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type FanOut[T any] struct {
	name  string
	token *Token
	count int
}

// NewFanOut creates a processor that broadcasts each input Result to count
// output channels. Outputs are unbuffered and delivery is sequential, so
// the slowest consumer paces the whole broadcast; every consumer sees the
// complete stream in the same order.
//
// Errors are broadcast like values. Each branch decides its own handling.
//
// When to use:
//   - Feeding the same stream to independent processing branches
//   - Splitting a feed into a live path and an archival path
//   - In-process publish-subscribe with a fixed subscriber set
//
// Example:
//
//	// One reading stream, three independent consumers
//	fanout := tempoz.NewFanOut[Reading](3)
//	branches := fanout.Process(ctx, readings)
//
//	go alert(branches[0])
//	go aggregate(branches[1])
//	go archive(branches[2])
//
// Parameters:
//   - count: Number of output channels to create
func NewFanOut[T any](count int) *FanOut[T] {
	return &FanOut[T]{
		name:  "fanout",
		count: count,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "fanout".
func (f *FanOut[T]) WithName(name string) *FanOut[T] {
	f.name = name
	return f
}

// WithToken attaches a cancellation token. When the token fires, the
// distributor stops at its next send or receive and closes every output,
// without needing access to the context.
func (f *FanOut[T]) WithToken(token *Token) *FanOut[T] {
	f.token = token
	return f
}

// Process broadcasts the input stream. All outputs close together when the
// input closes, the context is cancelled, or the token fires.
func (f *FanOut[T]) Process(ctx context.Context, in <-chan Result[T]) []<-chan Result[T] {
	outs := make([]<-chan Result[T], f.count)
	channels := make([]chan Result[T], f.count)

	for i := 0; i < f.count; i++ {
		channels[i] = make(chan Result[T])
		outs[i] = channels[i]
	}

	// Without a token, stop stays nil and its select cases never fire.
	var stop <-chan struct{}
	if f.token != nil {
		stop = f.token.Done()
	}

	go func() {
		defer func() {
			for _, ch := range channels {
				close(ch)
			}
		}()

		for {
			select {
			case result, ok := <-in:
				if !ok {
					return
				}
				for _, ch := range channels {
					select {
					case ch <- result:
					case <-ctx.Done():
						return
					case <-stop:
						return
					}
				}
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return outs
}

// Name returns the processor name for debugging and monitoring.
func (f *FanOut[T]) Name() string {
	return f.name
}
