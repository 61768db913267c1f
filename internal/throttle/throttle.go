// Package throttle rate-limits side-effecting actions that are triggered by
// a condition which may stay true for many consecutive frames.
package throttle

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum spacing between two firings.
const DefaultCooldown = 3 * time.Second

// Clock supplies the current time. Readings from time.Now carry a monotonic
// component, so Sub on them is immune to wall clock changes.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real clock.
var SystemClock Clock = systemClock{}

// Gate fires at most once per cooldown window.
type Gate struct {
	cooldown time.Duration
	clock    Clock

	mu    sync.Mutex
	last  time.Time
	fired bool
}

// New creates a Gate. A non-positive cooldown falls back to DefaultCooldown
// and a nil clock to SystemClock.
func New(cooldown time.Duration, clock Clock) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Gate{cooldown: cooldown, clock: clock}
}

// Allow reports whether the action may fire now, and if so records the
// firing.
func (g *Gate) Allow() bool {
	return g.AllowAt(g.clock.Now())
}

// AllowAt is Allow with an explicit timestamp.
func (g *Gate) AllowAt(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fired && now.Sub(g.last) < g.cooldown {
		return false
	}
	g.last = now
	g.fired = true
	return true
}

// Remaining is how long until the gate can fire again; zero if it can fire now.
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.fired {
		return 0
	}
	if d := g.cooldown - g.clock.Now().Sub(g.last); d > 0 {
		return d
	}
	return 0
}

// Cooldown returns the configured window.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }

// Reset forgets the last firing.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fired = false
	g.last = time.Time{}
}
