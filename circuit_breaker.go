package tempoz

import (
	"context"
	"sync/atomic"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed is the normal operating state where Results pass through.
	StateClosed State = iota
	// StateOpen is when the stream is failing and values are rejected.
	StateOpen
	// StateHalfOpen is when the circuit is testing whether upstream has
	// recovered.
	StateHalfOpen
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitStats contains statistics about the circuit breaker's operation.
type CircuitStats struct { //nolint:govet // fieldalignment: struct layout optimized for readability
	Requests            int64     // Total Results observed.
	Failures            int64     // Total error Results.
	Successes           int64     // Total successful Results.
	ConsecutiveFailures int64     // Current consecutive failure count.
	LastFailureTime     time.Time // Time of last failure.
	State               State     // Current state.
}

// CircuitBreaker implements the circuit breaker pattern over a Result
// stream. It watches the ratio of error Results flowing past and, when
// failures exceed a threshold, opens: values are rejected as
// ErrCircuitOpen error Results instead of reaching downstream stages.
// After a recovery timeout a limited number of Results are let through to
// probe upstream health, and the circuit closes again once they succeed.
//
// The circuit breaker has three states:
//   - Closed: Normal operation, Results pass through.
//   - Open: Failure threshold exceeded, values are rejected.
//   - Half-Open: Testing recovery, limited Results allowed.
//
// Error Results always continue downstream (they are already failures and
// feed error handling either way); what the breaker gates is the flow of
// values into the stages it protects.
//
// When to use:
//   - Shielding slow downstream stages (database writers, API sinks) from
//     streams that have gone bad
//   - Implementing fail-fast behavior when upstream error rates spike
//   - Reducing load on struggling pipeline stages
//
// Example:
//
//	// Basic circuit breaker with defaults.
//	protected := tempoz.NewCircuitBreaker[Order](tempoz.RealClock)
//
//	// Custom configuration.
//	protected := tempoz.NewCircuitBreaker[Order](tempoz.RealClock).
//		FailureThreshold(0.5).           // Open at 50% failure rate.
//		MinRequests(10).                 // Need 10 Results before calculating.
//		RecoveryTimeout(30*time.Second). // Wait 30s before half-open.
//		HalfOpenRequests(3).             // Allow 3 probes in half-open.
//		WithName("db-circuit")
//
//	// With state change notifications.
//	protected := tempoz.NewCircuitBreaker[Order](tempoz.RealClock).
//		OnStateChange(func(from, to tempoz.State) {
//			log.Printf("circuit: %s -> %s", from, to)
//		}).
//		OnOpen(func(stats tempoz.CircuitStats) {
//			alert.Send("circuit opened", stats)
//		})
//
//	results := protected.Process(ctx, orders)
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type CircuitBreaker[T any] struct {
	name             string
	failureThreshold float64
	minRequests      int64
	recoveryTimeout  time.Duration
	halfOpenRequests int64
	clock            Clock

	state           atomic.Int32
	lastStateChange AtomicTime

	requests            atomic.Int64
	failures            atomic.Int64
	successes           atomic.Int64
	consecutiveFailures atomic.Int64
	lastFailureTime     AtomicTime

	halfOpenAttempts atomic.Int64
	halfOpenFailures atomic.Int64

	onStateChange func(from, to State)
	onOpen        func(stats CircuitStats)
}

// NewCircuitBreaker creates a circuit breaker that gates a Result stream
// based on its observed failure rate.
//
// Default configuration:
//   - FailureThreshold: 0.5 (50%)
//   - MinRequests: 10
//   - RecoveryTimeout: 30s
//   - HalfOpenRequests: 3
//   - Name: "circuit-breaker"
//
// Parameters:
//   - clock: Clock implementation for recovery timing
//
// Returns a new CircuitBreaker with fluent configuration methods.
func NewCircuitBreaker[T any](clock Clock) *CircuitBreaker[T] {
	cb := &CircuitBreaker[T]{
		name:             "circuit-breaker",
		failureThreshold: 0.5,
		minRequests:      10,
		recoveryTimeout:  30 * time.Second,
		halfOpenRequests: 3,
		clock:            clock,
	}

	cb.state.Store(int32(StateClosed))
	cb.lastStateChange.Store(clock.Now())
	// lastFailureTime keeps its zero value until the first failure.

	return cb
}

// FailureThreshold sets the failure rate threshold for opening the
// circuit. Must be between 0.0 and 1.0.
func (cb *CircuitBreaker[T]) FailureThreshold(threshold float64) *CircuitBreaker[T] {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	cb.failureThreshold = threshold
	return cb
}

// MinRequests sets the minimum number of Results required before the
// failure rate is calculated. Prevents the circuit from opening on a
// small sample.
func (cb *CircuitBreaker[T]) MinRequests(minReqs int64) *CircuitBreaker[T] {
	if minReqs < 1 {
		minReqs = 1
	}
	cb.minRequests = minReqs
	return cb
}

// RecoveryTimeout sets how long the circuit stays open before
// transitioning to half-open to test recovery.
func (cb *CircuitBreaker[T]) RecoveryTimeout(timeout time.Duration) *CircuitBreaker[T] {
	if timeout < 0 {
		timeout = 0
	}
	cb.recoveryTimeout = timeout
	return cb
}

// HalfOpenRequests sets the number of probe Results allowed in half-open
// state before the state transition decision.
func (cb *CircuitBreaker[T]) HalfOpenRequests(requests int64) *CircuitBreaker[T] {
	if requests < 1 {
		requests = 1
	}
	cb.halfOpenRequests = requests
	return cb
}

// WithName sets a custom name for this processor.
// Rejected values emit error Results attributed to this name.
func (cb *CircuitBreaker[T]) WithName(name string) *CircuitBreaker[T] {
	cb.name = name
	return cb
}

// OnStateChange sets a callback invoked when the circuit breaker changes
// state. Useful for logging and alerting.
func (cb *CircuitBreaker[T]) OnStateChange(fn func(from, to State)) *CircuitBreaker[T] {
	cb.onStateChange = fn
	return cb
}

// OnOpen sets a callback invoked when the circuit breaker opens.
// The callback receives the statistics at the time of opening.
func (cb *CircuitBreaker[T]) OnOpen(fn func(stats CircuitStats)) *CircuitBreaker[T] {
	cb.onOpen = fn
	return cb
}

// Process gates the input stream with circuit breaker protection.
// Values rejected while the circuit is open emit as ErrCircuitOpen error
// Results carrying the rejected value; error Results always pass through
// unchanged.
func (cb *CircuitBreaker[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
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
					if cb.allowRequest() {
						cb.recordFailure()
					}
					if !sendResult(ctx, out, item) {
						return
					}
					continue
				}

				if !cb.allowRequest() {
					rejected := NewErrorAt(item.Value(), ErrCircuitOpen, cb.name, cb.clock.Now())
					if !sendResult(ctx, out, rejected) {
						return
					}
					continue
				}

				cb.recordSuccess()
				if !sendResult(ctx, out, item) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// allowRequest determines whether a Result may pass based on circuit state.
func (cb *CircuitBreaker[T]) allowRequest() bool {
	switch State(cb.state.Load()) {
	case StateClosed:
		return true

	case StateOpen:
		lastChange := cb.lastStateChange.Load()
		if cb.clock.Now().Sub(lastChange) >= cb.recoveryTimeout {
			cb.transitionToHalfOpen()
			return cb.allowHalfOpenRequest()
		}
		return false

	case StateHalfOpen:
		return cb.allowHalfOpenRequest()

	default:
		return false
	}
}

// allowHalfOpenRequest checks whether another probe is allowed in
// half-open state.
func (cb *CircuitBreaker[T]) allowHalfOpenRequest() bool {
	attempts := cb.halfOpenAttempts.Add(1)
	if attempts > cb.halfOpenRequests {
		cb.evaluateHalfOpenResults()
		return false
	}
	return true
}

// recordSuccess records a successful Result.
func (cb *CircuitBreaker[T]) recordSuccess() {
	cb.requests.Add(1)
	cb.successes.Add(1)
	cb.consecutiveFailures.Store(0)

	if State(cb.state.Load()) == StateHalfOpen {
		if cb.halfOpenAttempts.Load() >= cb.halfOpenRequests {
			cb.evaluateHalfOpenResults()
		}
	}
}

// recordFailure records an error Result.
func (cb *CircuitBreaker[T]) recordFailure() {
	cb.requests.Add(1)
	cb.failures.Add(1)
	cb.consecutiveFailures.Add(1)
	cb.lastFailureTime.Store(cb.clock.Now())

	switch State(cb.state.Load()) {
	case StateClosed:
		if cb.shouldOpen() {
			cb.transitionToOpen()
		}

	case StateHalfOpen:
		cb.halfOpenFailures.Add(1)
		if cb.halfOpenAttempts.Load() >= cb.halfOpenRequests {
			cb.evaluateHalfOpenResults()
		}
	}
}

// shouldOpen determines whether the circuit should open based on the
// observed failure rate.
func (cb *CircuitBreaker[T]) shouldOpen() bool {
	requests := cb.requests.Load()
	if requests < cb.minRequests {
		return false
	}

	failureRate := float64(cb.failures.Load()) / float64(requests)
	return failureRate >= cb.failureThreshold
}

func (cb *CircuitBreaker[T]) transitionToOpen() {
	oldState := State(cb.state.Swap(int32(StateOpen)))
	if oldState == StateOpen {
		return
	}
	cb.lastStateChange.Store(cb.clock.Now())

	if cb.onStateChange != nil {
		cb.onStateChange(oldState, StateOpen)
	}
	if cb.onOpen != nil {
		cb.onOpen(cb.GetStats())
	}
}

func (cb *CircuitBreaker[T]) transitionToHalfOpen() {
	oldState := State(cb.state.Swap(int32(StateHalfOpen)))
	if oldState == StateHalfOpen {
		return
	}
	cb.lastStateChange.Store(cb.clock.Now())
	cb.halfOpenAttempts.Store(0)
	cb.halfOpenFailures.Store(0)

	if cb.onStateChange != nil {
		cb.onStateChange(oldState, StateHalfOpen)
	}
}

func (cb *CircuitBreaker[T]) transitionToClosed() {
	oldState := State(cb.state.Swap(int32(StateClosed)))
	if oldState == StateClosed {
		return
	}
	cb.lastStateChange.Store(cb.clock.Now())
	// Fresh start for the next failure-rate window.
	cb.requests.Store(0)
	cb.failures.Store(0)
	cb.successes.Store(0)
	cb.consecutiveFailures.Store(0)

	if cb.onStateChange != nil {
		cb.onStateChange(oldState, StateClosed)
	}
}

// evaluateHalfOpenResults decides the transition out of half-open.
func (cb *CircuitBreaker[T]) evaluateHalfOpenResults() {
	if cb.halfOpenFailures.Load() == 0 {
		cb.transitionToClosed()
	} else {
		cb.transitionToOpen()
	}
}

// GetStats returns current circuit breaker statistics.
func (cb *CircuitBreaker[T]) GetStats() CircuitStats {
	return CircuitStats{
		Requests:            cb.requests.Load(),
		Failures:            cb.failures.Load(),
		Successes:           cb.successes.Load(),
		ConsecutiveFailures: cb.consecutiveFailures.Load(),
		LastFailureTime:     cb.lastFailureTime.Load(),
		State:               State(cb.state.Load()),
	}
}

// GetState returns the current state of the circuit breaker.
func (cb *CircuitBreaker[T]) GetState() State {
	return State(cb.state.Load())
}

// Name returns the processor name for debugging and monitoring.
func (cb *CircuitBreaker[T]) Name() string {
	return cb.name
}
