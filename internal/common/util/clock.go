package util

import (
	"sync"
	"time"
)

// Clock is the time source used for latency measurements.
// Durations must always be computed as Now().Sub(t0) so that Go's monotonic
// clock reading is used rather than wall-clock time.
type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (c *DefaultClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to.
// Safe for concurrent use.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{t: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d. Negative values are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Milliseconds converts d into fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// MillisecondsToDuration converts a millisecond count from configuration into a time.Duration.
func MillisecondsToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
