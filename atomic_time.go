package tempoz

import (
	"sync/atomic"
	"time"
)

// AtomicTime is a lock-free cell for time.Time values, stored as Unix
// nanoseconds. The zero value holds the zero time.
type AtomicTime struct {
	nanos atomic.Int64
}

// Store atomically stores a time value.
func (at *AtomicTime) Store(t time.Time) {
	at.nanos.Store(t.UnixNano())
}

// Load atomically loads the time value.
func (at *AtomicTime) Load() time.Time {
	nanos := at.nanos.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// IsZero returns true if the time is zero.
func (at *AtomicTime) IsZero() bool {
	return at.nanos.Load() == 0
}
