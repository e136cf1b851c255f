package tick

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long a burst of changes must be idle before the
// debounced action fires.
const DefaultQuietPeriod = 160 * time.Millisecond

// Debouncer runs the most recently triggered callback once the trigger calls
// have been quiet for the configured duration.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	seq      uint64
	next     func()
}

// NewDebouncer creates a Debouncer. A zero duration uses DefaultQuietPeriod.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration == 0 {
		duration = DefaultQuietPeriod
	}
	return &Debouncer{duration: duration}
}

// Trigger (re)arms the timer with callback.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	d.next = callback

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		fn := d.take(seq)
		if fn != nil {
			fn()
		}
	})
}

// take claims the callback for seq; a stale timer gets nil.
func (d *Debouncer) take(seq uint64) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return nil
	}
	fn := d.next
	d.next = nil
	d.timer = nil
	return fn
}

// Flush runs the pending callback immediately, if one is armed.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	d.seq++
	fn := d.next
	d.next = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.next = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a callback is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next != nil
}

func (d *Debouncer) Duration() time.Duration { return d.duration }
