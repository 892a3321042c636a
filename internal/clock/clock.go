package clock

import (
	"sync"
	"time"
)

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns the time elapsed since t according to NowFunc.
func Since(t time.Time) time.Duration { return Now().Sub(t) }

// Fixed is a manually advanced clock.
type Fixed struct {
	mu sync.Mutex
	at time.Time
}

// NewFixed creates a manually advanced clock starting at t.
func NewFixed(t time.Time) *Fixed { return &Fixed{at: t} }

// Now reports the current fixed time.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.at
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.at = f.at.Add(d)
	f.mu.Unlock()
}

// Install replaces NowFunc with f.Now and returns a restore func.
func (f *Fixed) Install() (restore func()) {
	prev := NowFunc
	NowFunc = f.Now
	return func() { NowFunc = prev }
}
