// Package debounce provides a cancellable trailing-edge debouncer with
// last-write-wins semantics.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays function execution until the delay has elapsed without
// another trigger. Each Trigger supersedes the previous one, so only the
// most recent function ever runs; a stale timer can never fire over a
// newer trigger.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
}

// New constructs a Debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the delay, replacing any pending run.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := seq != d.seq
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// Cancel drops any pending run. Safe to call repeatedly; required on
// teardown so no timer outlives its owner.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
