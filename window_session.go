package tempoz

import (
	"context"
	"sort"
	"time"
)

// session accumulates one key's Results between its first activity and the
// moment the activity gap elapses without a new arrival.
type session[T any] struct {
	key      string
	start    time.Time
	deadline time.Time
	results  []Result[T]
}

// SessionWindow groups Results into activity-based windows keyed by a
// session identity. A session starts at the first Result for a key and
// extends with every arrival; once the gap passes with no activity, the
// session closes and its Results are emitted annotated with the session's
// boundaries and key, errors included.
type SessionWindow[T any] struct {
	name    string
	clock   Clock
	keyFunc func(Result[T]) string
	gap     time.Duration
}

// NewSessionWindow creates a processor that groups Results into sessions
// based on activity gaps. Each Result is routed to a session by keyFunc,
// and a session closes when no Result for its key arrives within the gap.
// The gap defaults to 30 minutes; use WithGap to change it. Emitted
// Results carry their window metadata (start, end, type, gap, session key)
// for downstream regrouping with WindowCollector.
//
// The key function receives the whole Result so error Results can be
// routed to the session they belong to.
//
// When to use:
//   - User activity tracking (web sessions, app usage)
//   - Grouping related events with natural boundaries
//   - IoT device activity monitoring
//   - Fraud detection over transaction bursts
//
// Example:
//
//	// Group user events into sessions with 5-minute inactivity timeout
//	sessions := tempoz.NewSessionWindow(func(r tempoz.Result[Event]) string {
//		if r.IsError() {
//			return r.Error().Item.UserID
//		}
//		return r.Value().UserID
//	}, tempoz.RealClock).WithGap(5 * time.Minute)
//
//	annotated := sessions.Process(ctx, events)
//	collections := tempoz.NewWindowCollector[Event]().Process(ctx, annotated)
//	for w := range collections {
//		log.Printf("Session %s: %d events over %v",
//			*w.Meta.SessionKey, w.Count(), w.End.Sub(w.Start))
//	}
//
// Parameters:
//   - keyFunc: Routes each Result to its session identity
//   - clock: Clock implementation for timing control
//
// Returns a new SessionWindow processor for activity-based grouping.
func NewSessionWindow[T any](keyFunc func(Result[T]) string, clock Clock) *SessionWindow[T] {
	return &SessionWindow[T]{
		keyFunc: keyFunc,
		gap:     30 * time.Minute,
		name:    "session-window",
		clock:   clock,
	}
}

// WithGap sets the inactivity duration that closes a session.
// If not set, defaults to 30 minutes.
func (w *SessionWindow[T]) WithGap(gap time.Duration) *SessionWindow[T] {
	if gap > 0 {
		w.gap = gap
	}
	return w
}

// WithName sets a custom name for this processor.
// If not set, defaults to "session-window".
func (w *SessionWindow[T]) WithName(name string) *SessionWindow[T] {
	w.name = name
	return w
}

// Process groups the input stream into sessions. A single timer tracks the
// earliest session deadline; each arrival extends its session and re-arms
// the timer, so expiry order is deterministic under a fake clock. When the
// input closes, open sessions flush immediately; on context cancellation,
// they flush to any consumer still draining the output.
func (w *SessionWindow[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		sessions := make(map[string]*session[T])

		var timer Timer
		var timerC <-chan time.Time
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		// rearm points the timer at the earliest session deadline. Swapping
		// in a fresh timer sidesteps the stop-and-drain choreography; a
		// stale fire buffered in an abandoned channel is unreachable.
		rearm := func() {
			if timer != nil {
				timer.Stop()
				timer = nil
				timerC = nil
			}
			var earliest time.Time
			for _, s := range sessions {
				if earliest.IsZero() || s.deadline.Before(earliest) {
					earliest = s.deadline
				}
			}
			if earliest.IsZero() {
				return
			}
			timer = w.clock.NewTimer(earliest.Sub(w.clock.Now()))
			timerC = timer.C()
		}

		for {
			select {
			case result, ok := <-in:
				if !ok {
					w.flush(ctx, out, sessions, false)
					return
				}

				key := w.keyFunc(result)
				now := w.clock.Now()
				s, exists := sessions[key]
				if !exists {
					s = &session[T]{key: key, start: now}
					sessions[key] = s
				}
				s.deadline = now.Add(w.gap)
				s.results = append(s.results, result)
				rearm()

			case now := <-timerC:
				for _, s := range expiredSessions(sessions, now) {
					if !w.emit(ctx, out, s, false) {
						return
					}
					delete(sessions, s.key)
				}
				rearm()

			case <-ctx.Done():
				w.flush(ctx, out, sessions, true)
				return
			}
		}
	}()

	return out
}

// expiredSessions returns sessions whose deadlines have passed, ordered by
// start time with the key as tiebreaker for determinism.
func expiredSessions[T any](sessions map[string]*session[T], now time.Time) []*session[T] {
	var expired []*session[T]
	for _, s := range sessions {
		if !s.deadline.After(now) {
			expired = append(expired, s)
		}
	}
	sortSessions(expired)
	return expired
}

func sortSessions[T any](sessions []*session[T]) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].start.Equal(sessions[j].start) {
			return sessions[i].start.Before(sessions[j].start)
		}
		return sessions[i].key < sessions[j].key
	})
}

// flush emits every open session in start order.
func (w *SessionWindow[T]) flush(ctx context.Context, out chan<- Result[T], sessions map[string]*session[T], cancelled bool) {
	ordered := make([]*session[T], 0, len(sessions))
	for _, s := range sessions {
		ordered = append(ordered, s)
	}
	sortSessions(ordered)
	for _, s := range ordered {
		if !w.emit(ctx, out, s, cancelled) {
			return
		}
	}
}

// emit sends one session's Results annotated with its boundaries. On the
// cancellation path sends are unguarded, since selecting on a done context
// would drop Results at random; consumers that cancel are expected to
// drain the output until it closes.
func (w *SessionWindow[T]) emit(ctx context.Context, out chan<- Result[T], s *session[T], cancelled bool) bool {
	meta := WindowMetadata{
		Start:      s.start,
		End:        s.deadline,
		Type:       string(WindowTypeSession),
		Size:       s.deadline.Sub(s.start),
		Gap:        &w.gap,
		SessionKey: &s.key,
	}

	for _, result := range s.results {
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
func (w *SessionWindow[T]) Name() string {
	return w.name
}
