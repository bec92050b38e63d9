package tempoz

import (
	"context"
	"time"
)

// TumblingWindow groups Results into fixed-size, non-overlapping time
// windows. Each Result belongs to exactly one window. When a window's
// period expires, every Result it collected is emitted annotated with the
// window's boundaries, errors included, so downstream stages see exactly
// what happened inside each interval.
type TumblingWindow[T any] struct {
	name  string
	clock Clock
	size  time.Duration
}

// NewTumblingWindow creates a processor that groups Results into fixed-size
// time windows. Unlike sliding windows, tumbling windows don't overlap.
// Window boundaries are aligned to the window size, and emitted Results
// carry their window metadata (start, end, type, size) for downstream
// regrouping with WindowCollector.
//
// When to use:
//   - Time-based aggregations (hourly stats, daily summaries)
//   - Periodic batch processing
//   - Rate calculations over fixed intervals
//   - Metrics collection and reporting
//
// Example:
//
//	// Aggregate events into 1-minute windows
//	window := tempoz.NewTumblingWindow[Event](time.Minute, tempoz.RealClock)
//
//	annotated := window.Process(ctx, events)
//	collections := tempoz.NewWindowCollector[Event]().Process(ctx, annotated)
//	for w := range collections {
//		log.Printf("Window [%s - %s]: %d events, %d errors",
//			w.Start.Format("15:04:05"),
//			w.End.Format("15:04:05"),
//			w.SuccessCount(),
//			w.ErrorCount())
//	}
//
// Parameters:
//   - size: Duration of each window (e.g., 1 minute, 1 hour)
//   - clock: Clock implementation for timing control
//
// Returns a new TumblingWindow processor for time-based grouping.
func NewTumblingWindow[T any](size time.Duration, clock Clock) *TumblingWindow[T] {
	return &TumblingWindow[T]{
		size:  size,
		name:  "tumbling-window",
		clock: clock,
	}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "tumbling-window".
func (w *TumblingWindow[T]) WithName(name string) *TumblingWindow[T] {
	w.name = name
	return w
}

// Process groups the input stream into tumbling windows. Results are
// buffered until their window's end passes, then emitted in window order
// with window metadata attached. When the input closes, any open window
// flushes immediately; on context cancellation, buffered windows flush to
// any consumer still draining the output.
func (w *TumblingWindow[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		ticker := w.clock.NewTicker(w.size)
		defer ticker.Stop()

		windows := make(map[int64]*openWindow[T])

		for {
			select {
			case result, ok := <-in:
				if !ok {
					w.flush(ctx, out, windows, false)
					return
				}

				now := w.clock.Now()
				start := now.Truncate(w.size)
				win, exists := windows[start.UnixNano()]
				if !exists {
					win = &openWindow[T]{start: start, end: start.Add(w.size)}
					windows[start.UnixNano()] = win
				}
				win.results = append(win.results, result)

			case <-ticker.C():
				now := w.clock.Now()
				for _, win := range sortedWindows(windows) {
					if win.end.After(now) {
						continue
					}
					if !w.emit(ctx, out, win, false) {
						return
					}
					delete(windows, win.start.UnixNano())
				}

			case <-ctx.Done():
				w.flush(ctx, out, windows, true)
				return
			}
		}
	}()

	return out
}

// flush emits every open window in start order.
func (w *TumblingWindow[T]) flush(ctx context.Context, out chan<- Result[T], windows map[int64]*openWindow[T], cancelled bool) {
	for _, win := range sortedWindows(windows) {
		if !w.emit(ctx, out, win, cancelled) {
			return
		}
	}
}

// emit sends one window's Results annotated with its boundaries. On the
// cancellation path sends are unguarded, since selecting on a done context
// would drop Results at random; consumers that cancel are expected to
// drain the output until it closes.
func (w *TumblingWindow[T]) emit(ctx context.Context, out chan<- Result[T], win *openWindow[T], cancelled bool) bool {
	meta := WindowMetadata{
		Start: win.start,
		End:   win.end,
		Type:  string(WindowTypeTumbling),
		Size:  w.size,
	}

	for _, result := range win.results {
		annotated := AddWindowMetadata(result, meta)
		if cancelled {
			out <- annotated
			continue
		}
		select {
		case out <- annotated:
		case <-ctx.Done():
			return false
		}
	}

	return true
}

// Name returns the processor name for debugging and monitoring.
func (w *TumblingWindow[T]) Name() string {
	return w.name
}
