// Package debounce provides a coalescing single-slot scheduler.
//
// A Debouncer holds at most one pending call. Each Trigger cancels the
// pending call (if any) and arms a new one, so a burst of triggers results in
// a single call issued one interval after the last trigger.
package debounce

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled call.
type Timer interface {
	// Stop prevents the call from running. It returns false if the call
	// already ran or was already stopped.
	Stop() bool
}

// Clock schedules calls. The real clock is backed by time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock schedules calls on the runtime timer.
var RealClock Clock = realClock{}

// Debouncer runs fn once per quiet period of length interval.
// Safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	fn       func()
	pending  Timer
	gen      uint64
	stopped  bool
}

// New creates a Debouncer. A nil clock means RealClock.
func New(interval time.Duration, fn func(), clock Clock) *Debouncer {
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer{clock: clock, interval: interval, fn: fn}
}

// Trigger cancels the pending call and schedules a new one.
// It is a no-op after Stop.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.pending != nil {
		d.pending.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = d.clock.AfterFunc(d.interval, func() { d.fire(gen) })
}

// fire runs fn unless a later Trigger or Cancel superseded generation gen.
// A timer whose Stop lost the race against its own firing ends up here with
// a stale generation and does nothing.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()

	d.fn()
}

// Cancel drops the pending call. It reports whether a call was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	if d.pending == nil {
		return false
	}
	d.pending.Stop()
	d.pending = nil
	d.gen++
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels the pending call and disables further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}
