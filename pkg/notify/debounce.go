package notify

import (
	"sync"
	"time"
)

// StreamingLockDebounce delays streaming-lock follow-up caching by a
// fixed 500ms after the lock bit arrives, since hardware emits it
// before isochronous packets actually start flowing (spec.md §4.G).
const StreamingLockDebounce = 500 * time.Millisecond

// Debouncer arms a single pending timer per instance: a new arrival
// before the timer fires replaces the pending callback instead of
// stacking up a second timer, so a burst of lock notifications
// produces exactly one follow-up cache.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

// NewDebouncer returns a Debouncer with the streaming-lock delay.
func NewDebouncer() *Debouncer {
	return &Debouncer{delay: StreamingLockDebounce}
}

// Arm schedules fn to run after the debounce delay, canceling any
// previously armed callback on this Debouncer.
func (d *Debouncer) Arm(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel stops a pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
