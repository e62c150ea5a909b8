// Package clock supplies wall-clock time to the scheduler and status readers.
package clock

import (
	"sync"
	"time"
	_ "time/tzdata"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// System reads time.Now.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a settable clock for tests and one-shot CLI evaluation.
type Fixed struct {
	mu sync.RWMutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// LoadLocation resolves a timezone name, falling back to UTC for "".
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
