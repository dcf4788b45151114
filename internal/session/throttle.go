// ABOUTME: Trailing-edge throttle for prompt-weight updates
// ABOUTME: Collapses UI bursts into last-write-wins sends
package session

import (
	"sync"
	"time"
)

// Throttle rate-limits calls to fn. A burst of triggers collapses into at
// most one call per interval; fn always runs after the latest trigger, so the
// contract is eventually consistent, last write wins.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	timer    *time.Timer
	lastFire time.Time
	stopped  bool
}

// NewThrottle creates a throttle around fn.
func NewThrottle(interval time.Duration, fn func()) *Throttle {
	return &Throttle{interval: interval, fn: fn}
}

// Trigger requests a call to fn. Fires immediately when the interval has
// elapsed since the last call, otherwise schedules a single trailing call.
func (t *Throttle) Trigger() {
	t.mu.Lock()

	if t.stopped {
		t.mu.Unlock()
		return
	}

	now := time.Now()
	if now.Sub(t.lastFire) >= t.interval {
		t.lastFire = now
		t.mu.Unlock()
		t.fn()
		return
	}

	if t.timer == nil {
		wait := t.interval - now.Sub(t.lastFire)
		t.timer = time.AfterFunc(wait, t.fire)
	}
	t.mu.Unlock()
}

// Stop cancels any pending trailing call.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Throttle) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.lastFire = time.Now()
	t.mu.Unlock()
	t.fn()
}
