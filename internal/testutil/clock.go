// Package testutil provides deterministic stand-ins for the engine's time
// and remote-store dependencies.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roach88/gridsync/internal/engine"
)

// ManualClock is an engine.Clock driven entirely by the test. Time moves
// only through Advance (or Sleep, which advances synchronously), so
// debounce windows and grace retries fire deterministically.
//
// Thread-safety: all methods are safe for concurrent use.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

var _ engine.Clock = (*ManualClock)(nil)

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the clock by d immediately. The context is still honored
// so cancellation tests behave like production.
func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

// AfterFunc schedules fn at now+d.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) engine.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, firing due timers in chronological
// order. Callbacks run on the calling goroutine, which is exactly what a
// deterministic debounce test wants.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	deadline := c.now

	var due []*manualTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(deadline) {
			due = append(due, t)
		} else if !t.stopped {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Time
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *manualTimer) Reset(d time.Duration) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = false
	t.at = t.clock.now.Add(d)
	// Re-register in case the timer already fired or was stopped.
	for _, existing := range t.clock.timers {
		if existing == t {
			return
		}
	}
	t.clock.timers = append(t.clock.timers, t)
}
