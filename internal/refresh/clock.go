package refresh

import (
	"sync"
	"time"
)

// Clock supplies the time the debounce deadline is measured against.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time. time.Now carries a monotonic
// reading, so deadlines are immune to wall clock jumps.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock provides a controllable clock for testing.
type FakeClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFakeClock creates a fake clock set to t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

func (f *FakeClock) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Advance moves the fake time forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
