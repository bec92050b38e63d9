package tempoz

import (
	"context"
	crand "crypto/rand"
	"math"
	"math/big"
	"time"
)

// Retry applies an operation to each value with automatic retries using
// exponential backoff and optional jitter. Transient failures are absorbed
// by the backoff loop; exhausted attempts become error Results carrying
// the original input value, so failures stay visible downstream instead
// of silently vanishing.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Retry[T any] struct {
	name        string
	fn          func(context.Context, T) (T, error)
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	withJitter  bool
	onError     func(error, int) bool
	clock       Clock
}

// NewRetry creates a processor that applies an operation with retry logic.
// Each successful input value is passed to fn; failures are retried with
// exponential backoff until an attempt succeeds, the attempts are
// exhausted, or the classifier rejects the error.
//
// Default configuration:
//   - MaxAttempts: 3
//   - BaseDelay: 100ms
//   - MaxDelay: 30s
//   - WithJitter: true
//
// Error Results already in the stream pass through unchanged; only values
// reach the operation.
//
// When to use:
//   - Wrapping calls to external services
//   - Handling network timeouts and transient failures
//   - Smoothing over temporary resource constraints
//
// Example:
//
//	// Basic retry with defaults (3 attempts, 100ms base delay).
//	resilient := tempoz.NewRetry(func(ctx context.Context, id string) (string, error) {
//		return enrichFromAPI(ctx, id) // May fail transiently.
//	}, tempoz.RealClock)
//
//	// Custom retry configuration.
//	resilient := tempoz.NewRetry(callService, tempoz.RealClock).
//		MaxAttempts(5).
//		BaseDelay(200 * time.Millisecond).
//		MaxDelay(10 * time.Second).
//		WithJitter(true).
//		WithName("api-retry")
//
//	// Custom error classification.
//	resilient := tempoz.NewRetry(callService, tempoz.RealClock).
//		OnError(func(err error, attempt int) bool {
//			return errors.Is(err, ErrUnavailable)
//		})
//
//	results := resilient.Process(ctx, ids)
//	for r := range results {
//		if r.IsError() {
//			log.Printf("gave up on %v: %v", r.Error().Item, r.Error().Unwrap())
//		}
//	}
//
// Parameters:
//   - fn: The operation to apply with retry protection
//   - clock: Clock interface for backoff delays
//
// Returns a new Retry processor with fluent configuration methods.
func NewRetry[T any](fn func(context.Context, T) (T, error), clock Clock) *Retry[T] {
	return &Retry[T]{
		name:        "retry",
		fn:          fn,
		clock:       clock,
		maxAttempts: 3,
		baseDelay:   100 * time.Millisecond,
		maxDelay:    30 * time.Second,
		withJitter:  true,
	}
}

// MaxAttempts sets the maximum number of attempts per value.
// Includes the initial attempt, so MaxAttempts(3) means 1 initial + 2 retries.
func (r *Retry[T]) MaxAttempts(attempts int) *Retry[T] {
	if attempts < 1 {
		attempts = 1
	}
	r.maxAttempts = attempts
	return r
}

// BaseDelay sets the base delay for exponential backoff.
// The delay before retry N is baseDelay * 2^(N-1): with 100ms base,
// 100ms, 200ms, 400ms, 800ms.
func (r *Retry[T]) BaseDelay(delay time.Duration) *Retry[T] {
	if delay < 0 {
		delay = 0
	}
	r.baseDelay = delay
	return r
}

// MaxDelay caps the exponential backoff so high attempt counts cannot
// produce extreme waits.
func (r *Retry[T]) MaxDelay(delay time.Duration) *Retry[T] {
	if delay < 0 {
		delay = 0
	}
	r.maxDelay = delay
	return r
}

// WithJitter enables or disables jitter in retry delays. When enabled,
// delays are randomized between 50% and 100% of the calculated backoff to
// prevent thundering herds of synchronized retries.
func (r *Retry[T]) WithJitter(enabled bool) *Retry[T] {
	r.withJitter = enabled
	return r
}

// WithName sets a custom name for this processor.
// Exhausted retries emit error Results attributed to this name.
func (r *Retry[T]) WithName(name string) *Retry[T] {
	r.name = name
	return r
}

// OnError sets a custom error classification function. It receives the
// error and the attempt number and returns whether the operation should
// be retried. If not set, all errors are considered retryable.
func (r *Retry[T]) OnError(fn func(error, int) bool) *Retry[T] {
	r.onError = fn
	return r
}

// Process applies the operation to every value with retry protection.
// Values whose attempts are all exhausted emit as error Results carrying
// the original input value and the final error.
func (r *Retry[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		for {
			select {
			case item, ok := <-in:
				if !ok {
					return
				}

				if item.IsError() {
					if !sendResult(ctx, out, item) {
						return
					}
					continue
				}

				result, done := r.attempt(ctx, item.Value())
				if done {
					return
				}
				if !sendResult(ctx, out, result) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// attempt runs the retry loop for one value. The second return reports
// context cancellation, which ends the stream.
func (r *Retry[T]) attempt(ctx context.Context, value T) (Result[T], bool) {
	var lastErr error

	for n := 1; n <= r.maxAttempts; n++ {
		if n > 1 {
			select {
			case <-r.clock.After(r.backoff(n - 1)):
			case <-ctx.Done():
				return Result[T]{}, true
			}
		}

		mapped, err := r.fn(ctx, value)
		if err == nil {
			return NewSuccess(mapped), false
		}
		lastErr = err

		if r.onError != nil && !r.onError(err, n) {
			break
		}
	}

	return NewError(value, lastErr, r.name), false
}

// backoff computes the delay before the given retry using exponential
// growth capped at maxDelay.
func (r *Retry[T]) backoff(retry int) time.Duration {
	delay := float64(r.baseDelay) * math.Pow(2, float64(retry-1))

	if time.Duration(delay) > r.maxDelay {
		delay = float64(r.maxDelay)
	}

	if r.withJitter {
		// Randomize between 50% and 100% of the calculated delay.
		n, err := crand.Int(crand.Reader, big.NewInt(500))
		if err != nil {
			n = big.NewInt(250)
		}
		delay *= 0.5 + float64(n.Int64())/1000.0
	}

	return time.Duration(delay)
}

// Name returns the processor name for debugging and monitoring.
func (r *Retry[T]) Name() string {
	return r.name
}
