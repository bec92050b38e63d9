package tempoz

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Window metadata keys. Window processors annotate every Result they emit
// with the boundaries of the window it belonged to, so downstream stages
// can regroup or inspect windows without a dedicated container type.
const (
	MetadataWindowStart = "window_start" // time.Time - window start time
	MetadataWindowEnd   = "window_end"   // time.Time - window end time
	MetadataWindowType  = "window_type"  // string - "tumbling", "sliding", "session"
	MetadataWindowSize  = "window_size"  // time.Duration - window duration
	MetadataWindowSlide = "window_slide" // time.Duration - slide interval (sliding only)
	MetadataWindowGap   = "window_gap"   // time.Duration - activity gap (session only)
	MetadataSessionKey  = "session_key"  // string - session identity (session only)
)

// WindowMetadata is the full set of window annotations carried by a
// Result. Slide, Gap, and SessionKey are optional and only set by the
// window types that use them.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type WindowMetadata struct {
	Size       time.Duration
	Slide      *time.Duration
	Gap        *time.Duration
	SessionKey *string
	Start      time.Time
	End        time.Time
	Type       string
}

// AddWindowMetadata annotates a Result with complete window metadata.
func AddWindowMetadata[T any](result Result[T], meta WindowMetadata) Result[T] {
	enhanced := result.
		WithMetadata(MetadataWindowStart, meta.Start).
		WithMetadata(MetadataWindowEnd, meta.End).
		WithMetadata(MetadataWindowType, meta.Type).
		WithMetadata(MetadataWindowSize, meta.Size)

	if meta.Slide != nil {
		enhanced = enhanced.WithMetadata(MetadataWindowSlide, *meta.Slide)
	}
	if meta.Gap != nil {
		enhanced = enhanced.WithMetadata(MetadataWindowGap, *meta.Gap)
	}
	if meta.SessionKey != nil {
		enhanced = enhanced.WithMetadata(MetadataSessionKey, *meta.SessionKey)
	}

	return enhanced
}

// GetWindowMetadata extracts window metadata from a Result. Start, End,
// and Type are required; the rest are optional.
func GetWindowMetadata[T any](result Result[T]) (WindowMetadata, error) {
	start, found, err := result.GetTimeMetadata(MetadataWindowStart)
	if err != nil || !found {
		return WindowMetadata{}, fmt.Errorf("window start time not found or invalid: %w", err)
	}

	end, found, err := result.GetTimeMetadata(MetadataWindowEnd)
	if err != nil || !found {
		return WindowMetadata{}, fmt.Errorf("window end time not found or invalid: %w", err)
	}

	windowType, found, err := result.GetStringMetadata(MetadataWindowType)
	if err != nil || !found {
		return WindowMetadata{}, fmt.Errorf("window type not found or invalid: %w", err)
	}

	meta := WindowMetadata{
		Start: start,
		End:   end,
		Type:  windowType,
	}

	if sizeVal, found := result.GetMetadata(MetadataWindowSize); found {
		if size, ok := sizeVal.(time.Duration); ok {
			meta.Size = size
		}
	}
	if slideVal, found := result.GetMetadata(MetadataWindowSlide); found {
		if slide, ok := slideVal.(time.Duration); ok {
			meta.Slide = &slide
		}
	}
	if gapVal, found := result.GetMetadata(MetadataWindowGap); found {
		if gap, ok := gapVal.(time.Duration); ok {
			meta.Gap = &gap
		}
	}
	if sessionKey, found, err := result.GetStringMetadata(MetadataSessionKey); found && err == nil {
		meta.SessionKey = &sessionKey
	}

	return meta, nil
}

// WindowType represents the type of window.
type WindowType string

// Window type constants.
const (
	WindowTypeTumbling WindowType = "tumbling"
	WindowTypeSliding  WindowType = "sliding"
	WindowTypeSession  WindowType = "session"
)

// WindowInfo provides type-safe access to window metadata.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type WindowInfo struct {
	Size       time.Duration
	Slide      *time.Duration
	Gap        *time.Duration
	SessionKey *string
	Start      time.Time
	End        time.Time
	Type       WindowType
}

// GetWindowInfo extracts window metadata and validates the window type.
func GetWindowInfo[T any](result Result[T]) (WindowInfo, error) {
	meta, err := GetWindowMetadata(result)
	if err != nil {
		return WindowInfo{}, err
	}

	windowType := WindowType(meta.Type)
	switch windowType {
	case WindowTypeTumbling, WindowTypeSliding, WindowTypeSession:
	default:
		return WindowInfo{}, fmt.Errorf("invalid window type: %s", meta.Type)
	}

	return WindowInfo{
		Start:      meta.Start,
		End:        meta.End,
		Type:       windowType,
		Size:       meta.Size,
		Slide:      meta.Slide,
		Gap:        meta.Gap,
		SessionKey: meta.SessionKey,
	}, nil
}

// IsInWindow checks if a timestamp falls within the Result's window.
// Windows are half-open: start inclusive, end exclusive.
func IsInWindow[T any](result Result[T], timestamp time.Time) (bool, error) {
	info, err := GetWindowInfo(result)
	if err != nil {
		return false, err
	}

	return !timestamp.Before(info.Start) && timestamp.Before(info.End), nil
}

// WindowDuration returns the actual window duration.
func WindowDuration[T any](result Result[T]) (time.Duration, error) {
	info, err := GetWindowInfo(result)
	if err != nil {
		return 0, err
	}

	return info.End.Sub(info.Start), nil
}

// openWindow accumulates the Results of one time window until its end
// boundary passes. Shared by the tumbling and sliding processors.
type openWindow[T any] struct {
	start   time.Time
	end     time.Time
	results []Result[T]
}

// sortedWindows returns the map's windows ordered by start time, so
// emission order is deterministic regardless of map iteration.
func sortedWindows[T any](windows map[int64]*openWindow[T]) []*openWindow[T] {
	ordered := make([]*openWindow[T], 0, len(windows))
	for _, w := range windows {
		ordered = append(ordered, w)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].start.Before(ordered[j].start)
	})
	return ordered
}

// windowKey identifies a window by its boundaries without allocating
// strings on the aggregation path.
type windowKey struct {
	startNano int64
	endNano   int64
}

// WindowCollection is the aggregate of all Results that shared one
// window's boundaries.
type WindowCollection[T any] struct {
	Start   time.Time
	End     time.Time
	Meta    WindowMetadata
	Results []Result[T]
}

// Values returns all successful values from the window collection.
func (wc WindowCollection[T]) Values() []T {
	var values []T
	for _, result := range wc.Results {
		if result.IsSuccess() {
			values = append(values, result.Value())
		}
	}
	return values
}

// Errors returns all errors from the window collection.
func (wc WindowCollection[T]) Errors() []*StreamError[T] {
	var errs []*StreamError[T]
	for _, result := range wc.Results {
		if result.IsError() {
			errs = append(errs, result.Error())
		}
	}
	return errs
}

// Count returns the total number of results in the window collection.
func (wc WindowCollection[T]) Count() int {
	return len(wc.Results)
}

// SuccessCount returns the number of successful results.
func (wc WindowCollection[T]) SuccessCount() int {
	count := 0
	for _, result := range wc.Results {
		if result.IsSuccess() {
			count++
		}
	}
	return count
}

// ErrorCount returns the number of error results.
func (wc WindowCollection[T]) ErrorCount() int {
	count := 0
	for _, result := range wc.Results {
		if result.IsError() {
			count++
		}
	}
	return count
}

// WindowCollector regroups window-annotated Results into whole windows.
// It is the inverse of the window processors' per-item emission: Results
// carrying identical window boundaries aggregate into one
// WindowCollection.
type WindowCollector[T any] struct {
	name string
}

// NewWindowCollector creates a collector that aggregates Results by their
// window metadata. Results without window metadata are dropped. Windows
// are emitted when the input closes, ordered by window start; on context
// cancellation, collected windows are flushed to any consumer still
// draining the output.
func NewWindowCollector[T any]() *WindowCollector[T] {
	return &WindowCollector[T]{name: "window-collector"}
}

// WithName sets a custom name for this processor.
// If not set, defaults to "window-collector".
func (c *WindowCollector[T]) WithName(name string) *WindowCollector[T] {
	c.name = name
	return c
}

// Process aggregates the input stream into WindowCollections.
func (c *WindowCollector[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan WindowCollection[T] {
	out := make(chan WindowCollection[T])

	go func() {
		defer close(out)

		windows := make(map[windowKey][]Result[T])
		windowMeta := make(map[windowKey]WindowMetadata)

		for {
			select {
			case result, ok := <-in:
				if !ok {
					c.emitAll(ctx, out, windows, windowMeta, false)
					return
				}

				meta, err := GetWindowMetadata(result)
				if err != nil {
					continue
				}

				key := windowKey{
					startNano: meta.Start.UnixNano(),
					endNano:   meta.End.UnixNano(),
				}

				windows[key] = append(windows[key], result)
				windowMeta[key] = meta

			case <-ctx.Done():
				c.emitAll(ctx, out, windows, windowMeta, true)
				return
			}
		}
	}()

	return out
}

// emitAll flushes every collected window in start order. On the
// cancellation path sends are unguarded, since selecting on a done context
// would drop windows at random; consumers that cancel are expected to
// drain the output until it closes.
func (*WindowCollector[T]) emitAll(ctx context.Context, out chan<- WindowCollection[T], windows map[windowKey][]Result[T], meta map[windowKey]WindowMetadata, cancelled bool) {
	keys := make([]windowKey, 0, len(windows))
	for key := range windows {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].startNano != keys[j].startNano {
			return keys[i].startNano < keys[j].startNano
		}
		return keys[i].endNano < keys[j].endNano
	})

	for _, key := range keys {
		results := windows[key]
		if len(results) == 0 {
			continue
		}
		windowMeta := meta[key]
		collection := WindowCollection[T]{
			Start:   windowMeta.Start,
			End:     windowMeta.End,
			Results: results,
			Meta:    windowMeta,
		}

		if cancelled {
			out <- collection
			continue
		}
		select {
		case out <- collection:
		case <-ctx.Done():
			return
		}
	}
}

// Name returns the processor name for debugging and monitoring.
func (c *WindowCollector[T]) Name() string {
	return c.name
}
