// Package clock provides the engine's single authoritative time source.
// A run uses exactly one clock: wall time live, a candle-driven clock in
// simulation. The two are never mixed.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source a run is parameterized by.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock.
type Real struct{}

// NewReal returns the wall clock.
func NewReal() *Real {
	return &Real{}
}

// Now returns the current wall time in UTC.
func (r *Real) Now() time.Time {
	return time.Now().UTC()
}

// Simulated is a clock the simulator advances one candle at a time.
type Simulated struct {
	mu  sync.Mutex
	now time.Time
}

// NewSimulated creates a simulated clock starting at the given instant.
func NewSimulated(start time.Time) *Simulated {
	return &Simulated{now: start.UTC()}
}

// Now returns the simulated instant.
func (s *Simulated) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Set moves the clock to the given instant.
func (s *Simulated) Set(t time.Time) {
	s.mu.Lock()
	s.now = t.UTC()
	s.mu.Unlock()
}
