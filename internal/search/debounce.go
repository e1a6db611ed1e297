package search

import (
	"sync"
	"time"
)

// Debouncer decides when a burst of keystrokes should hit the network.
// Every keystroke restarts the delay; consecutive fires are at least
// cooldown apart. It holds no timers: the caller schedules the wait it is
// given and asks Fire whether its token is still current.
type Debouncer struct {
	delay    time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	seq      int
	lastFire time.Time
}

// NewDebouncer creates a debouncer
func NewDebouncer(delay, cooldown time.Duration) *Debouncer {
	return &Debouncer{delay: delay, cooldown: cooldown, now: time.Now}
}

// Trigger records a keystroke and returns its token and how long to wait
// before calling Fire with it.
func (d *Debouncer) Trigger() (token int, wait time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++

	wait = d.delay
	if !d.lastFire.IsZero() {
		earliest := d.lastFire.Add(d.cooldown)
		if now := d.now(); now.Add(wait).Before(earliest) {
			wait = earliest.Sub(now)
		}
	}
	return d.seq, wait
}

// Fire reports whether token is the latest keystroke and, if so, records
// the time of the network call.
func (d *Debouncer) Fire(token int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if token != d.seq {
		return false
	}
	d.lastFire = d.now()
	return true
}

// Cancel invalidates every outstanding token
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.seq++
	d.mu.Unlock()
}
