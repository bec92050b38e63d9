package tempoz

import (
	"context"
	"sync"
	"time"
)

// Distinct removes duplicate values from a stream based on a key function.
// It maintains a time-based cache of seen keys with automatic expiration.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Distinct[T any, K comparable] struct {
	name    string
	keyFunc func(T) K
	clock   Clock
	mu      sync.Mutex
	seen    map[K]time.Time
	ttl     time.Duration
}

// NewDistinct creates a processor that filters out duplicate values. The
// keyFunc extracts a comparable key from each value; a value whose key was
// seen within the ttl is dropped, and seeing a duplicate does not refresh
// its expiry. A ttl of zero or less remembers keys forever.
//
// Error Results pass through unchanged and are never considered for
// deduplication.
//
// Expiry runs on the injected Clock, so tests can drive the cache
// deterministically with a fake clock.
//
// When to use:
//   - Remove duplicate events or messages
//   - Implement idempotency in stream processing
//   - Prevent repeated notifications within a window
//
// Example:
//
//	// Deduplicate events by ID with 5-minute memory
//	distinct := tempoz.NewDistinct(func(e Event[Order]) string {
//		return e.Payload.ID
//	}, 5*time.Minute, tempoz.RealClock)
//	unique := distinct.Process(ctx, events)
//
// Parameters:
//   - keyFunc: Extracts the deduplication key from each value
//   - ttl: How long to remember seen keys; <= 0 means forever
//   - clock: Clock interface for time operations
func NewDistinct[T any, K comparable](keyFunc func(T) K, ttl time.Duration, clock Clock) *Distinct[T, K] {
	return &Distinct[T, K]{
		name:    "distinct",
		keyFunc: keyFunc,
		ttl:     ttl,
		clock:   clock,
		seen:    make(map[K]time.Time),
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "distinct".
func (d *Distinct[T, K]) WithName(name string) *Distinct[T, K] {
	d.name = name
	return d
}

// Process deduplicates the input stream. The output closes when the input
// closes or the context is cancelled.
func (d *Distinct[T, K]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		// With no expiry there is no ticker; the nil channel case never fires.
		var cleanup <-chan time.Time
		if d.ttl > 0 {
			ticker := d.clock.NewTicker(d.ttl / 2)
			defer ticker.Stop()
			cleanup = ticker.C()
		}

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

				key := d.keyFunc(item.Value())

				d.mu.Lock()
				lastSeen, exists := d.seen[key]
				now := d.clock.Now()
				fresh := !exists || (d.ttl > 0 && now.Sub(lastSeen) > d.ttl)
				if fresh {
					d.seen[key] = now
				}
				d.mu.Unlock()

				if fresh {
					if !sendResult(ctx, out, item) {
						return
					}
				}

			case <-cleanup:
				d.expire()

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (d *Distinct[T, K]) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	for key, lastSeen := range d.seen {
		if now.Sub(lastSeen) > d.ttl {
			delete(d.seen, key)
		}
	}
}

// Name returns the processor name for debugging and monitoring.
func (d *Distinct[T, K]) Name() string {
	return d.name
}
