package tempoz

import (
	"context"
	"time"
)

// SlidingWindow groups Results into overlapping time windows. A Result can
// belong to several windows at once, which makes this ideal for moving
// averages and trend detection. When a window's period expires, every
// Result it collected is emitted annotated with that window's boundaries,
// errors included.
type SlidingWindow[T any] struct {
	name  string
	clock Clock
	size  time.Duration
	slide time.Duration
}

// NewSlidingWindow creates a processor that groups Results into overlapping
// time windows. Windows of the given size start every slide interval, so
// with size 1m and slide 30s each Result lands in two windows. The slide
// defaults to the window size, which yields non-overlapping tumbling
// behavior until WithSlide sets an overlap. Emitted Results carry their
// window metadata (start, end, type, size, slide) for downstream
// regrouping with WindowCollector.
//
// When to use:
//   - Moving averages and smoothed statistics
//   - Trend detection over recent activity
//   - Rate monitoring with overlapping samples
//   - Anomaly detection comparing adjacent periods
//
// Example:
//
//	// 1-minute windows advancing every 15 seconds
//	window := tempoz.NewSlidingWindow[Metric](time.Minute, tempoz.RealClock).
//		WithSlide(15 * time.Second)
//
//	annotated := window.Process(ctx, metrics)
//	collections := tempoz.NewWindowCollector[Metric]().Process(ctx, annotated)
//	for w := range collections {
//		avg := average(w.Values())
//		log.Printf("Window [%s]: avg=%.2f", w.Start.Format("15:04:05"), avg)
//	}
//
// Parameters:
//   - size: Duration of each window
//   - clock: Clock implementation for timing control
//
// Returns a new SlidingWindow processor for overlapping time-based grouping.
func NewSlidingWindow[T any](size time.Duration, clock Clock) *SlidingWindow[T] {
	return &SlidingWindow[T]{
		size:  size,
		slide: size,
		name:  "sliding-window",
		clock: clock,
	}
}

// WithSlide sets the interval between window starts. A slide smaller than
// the window size produces overlapping windows; equal to the size it
// behaves as a tumbling window.
func (w *SlidingWindow[T]) WithSlide(slide time.Duration) *SlidingWindow[T] {
	if slide > 0 {
		w.slide = slide
	}
	return w
}

// WithName sets a custom name for this processor.
// If not set, defaults to "sliding-window".
func (w *SlidingWindow[T]) WithName(name string) *SlidingWindow[T] {
	w.name = name
	return w
}

// Process groups the input stream into sliding windows. Each arriving
// Result joins every window whose span covers the arrival time. Windows
// are emitted in start order as their end boundaries pass. When the input
// closes, open windows flush immediately; on context cancellation, they
// flush to any consumer still draining the output.
func (w *SlidingWindow[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		ticker := w.clock.NewTicker(w.slide)
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
				// Walk back through every window start that still covers now.
				for start := now.Truncate(w.slide); start.After(now.Add(-w.size)); start = start.Add(-w.slide) {
					win, exists := windows[start.UnixNano()]
					if !exists {
						win = &openWindow[T]{start: start, end: start.Add(w.size)}
						windows[start.UnixNano()] = win
					}
					win.results = append(win.results, result)
				}

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
func (w *SlidingWindow[T]) flush(ctx context.Context, out chan<- Result[T], windows map[int64]*openWindow[T], cancelled bool) {
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
func (w *SlidingWindow[T]) emit(ctx context.Context, out chan<- Result[T], win *openWindow[T], cancelled bool) bool {
	meta := WindowMetadata{
		Start: win.start,
		End:   win.end,
		Type:  string(WindowTypeSliding),
		Size:  w.size,
		Slide: &w.slide,
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
func (w *SlidingWindow[T]) Name() string {
	return w.name
}
