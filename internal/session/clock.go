// Package session resolves trading-day checkpoint schedules and
// abstracts the clock so replayed sessions run without wall-clock
// waits.
package session

import (
	"sync"
	"time"
)

// Clock supplies the current session time. Checkpoint logic is driven
// by the clock, not by tick arrival, so locks/arm/flatten fire even on
// a quiet market.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// SimClock is a manually advanced clock for replay and accelerated
// simulation. Advance-only: Set with an earlier time is ignored.
type SimClock struct {
	mu sync.RWMutex
	t  time.Time
}

// NewSimClock creates a SimClock starting at t.
func NewSimClock(t time.Time) *SimClock {
	return &SimClock{t: t}
}

// Now implements Clock.
func (c *SimClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

// Set advances the clock to t if t is later than the current time.
func (c *SimClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.t) {
		c.t = t
	}
}
