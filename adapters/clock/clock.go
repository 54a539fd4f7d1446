// Package clock implements ports.Clock. Rate limit windows and report
// anchor dates both derive from Clock, so swapping in Fake makes those
// paths deterministic under test.
package clock

import (
	"sync"
	"time"
)

// Real delegates to the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is a clock frozen at an explicit instant. Time only moves when a
// test calls Set or Advance; safe for concurrent readers.
type Fake struct {
	mu sync.RWMutex
	at time.Time
}

// NewFake returns a fake clock frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{at: t}
}

func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.at
}

// Set jumps the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.at = t
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.at = f.at.Add(d)
}
