package tempoz

import (
	"context"
	"sync/atomic"
	"time"
)

// StreamStats is one periodic snapshot of a monitored stream: how many
// Results passed since the last report, how many of them were errors, and
// the resulting rate.
type StreamStats struct {
	// LastUpdate is the timestamp of this statistics snapshot
	LastUpdate time.Time
	// Count is the number of Results processed since the last report
	Count int64
	// ErrorCount is how many of those Results carried errors
	ErrorCount int64
	// Rate is the average Results per second since the last report
	Rate float64
}

// Monitor observes Results passing through a stream and periodically
// reports statistics. It is a pass-through processor; the stream itself is
// never modified.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Monitor[T any] struct {
	name     string
	clock    Clock
	onStats  func(StreamStats)
	lastTime AtomicTime
	interval time.Duration
	count    atomic.Int64
	errors   atomic.Int64
}

// NewMonitor creates a pass-through processor that reports throughput on a
// fixed interval. Counters reset after each report, so Count and Rate
// describe the most recent interval only. A report is also emitted on
// stream completion and on context cancellation, covering the final
// partial interval.
//
// The reporting schedule runs on the injected Clock, so tests can step it
// deterministically. Rate is computed from the clock's elapsed time
// between reports.
//
// When to use:
//   - Watching throughput and error ratio at a pipeline stage
//   - Feeding dashboards or alerting from a live stream
//   - Finding bottlenecks by monitoring several stages at once
//
// Example:
//
//	// Report once a second
//	monitor := tempoz.NewMonitor[Reading](time.Second, tempoz.RealClock, func(stats tempoz.StreamStats) {
//		log.Printf("%.1f items/sec, %d errors", stats.Rate, stats.ErrorCount)
//	})
//	observed := monitor.Process(ctx, readings)
//
// Parameters:
//   - interval: How often to report statistics
//   - clock: Clock interface for time operations
//   - onStats: Callback invoked with each statistics snapshot
func NewMonitor[T any](interval time.Duration, clock Clock, onStats func(StreamStats)) *Monitor[T] {
	m := &Monitor[T]{
		name:     "monitor",
		interval: interval,
		clock:    clock,
		onStats:  onStats,
	}
	m.lastTime.Store(clock.Now())
	return m
}

// WithName sets a custom name for this processor.
// If not set, defaults to "monitor".
func (m *Monitor[T]) WithName(name string) *Monitor[T] {
	m.name = name
	return m
}

// Process observes the input stream and forwards it unchanged. The output
// closes when the input closes or the context is cancelled; a final report
// fires either way.
func (m *Monitor[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		ticker := m.clock.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case item, ok := <-in:
				if !ok {
					m.report()
					return
				}

				m.count.Add(1)
				if item.IsError() {
					m.errors.Add(1)
				}

				select {
				case out <- item:
				case <-ctx.Done():
					m.report()
					return
				}

			case <-ticker.C():
				m.report()

			case <-ctx.Done():
				m.report()
				return
			}
		}
	}()

	return out
}

func (m *Monitor[T]) report() {
	count := m.count.Swap(0)
	errs := m.errors.Swap(0)
	now := m.clock.Now()
	last := m.lastTime.Load()
	m.lastTime.Store(now)

	var rate float64
	if elapsed := now.Sub(last).Seconds(); elapsed > 0 {
		rate = float64(count) / elapsed
	}

	if m.onStats != nil {
		m.onStats(StreamStats{
			Count:      count,
			ErrorCount: errs,
			Rate:       rate,
			LastUpdate: now,
		})
	}
}

// Name returns the processor name for debugging and monitoring.
func (m *Monitor[T]) Name() string {
	return m.name
}
