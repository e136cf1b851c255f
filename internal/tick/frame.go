// Package tick provides the per-frame scheduling primitives the canvas uses to
// keep high-frequency input from doing more than one unit of work per render.
package tick

// Scheduler runs callbacks at the next render tick.
type Scheduler interface {
	RequestFrame(fn func())
}

// Loop is a manual Scheduler: callbacks queue until RunFrame is called. The
// app's frame goroutine calls RunFrame on every tick; tests call it directly.
type Loop struct {
	queue []func()
	frame uint64
}

func NewLoop() *Loop { return &Loop{} }

// RequestFrame queues fn for the next frame.
func (l *Loop) RequestFrame(fn func()) {
	l.queue = append(l.queue, fn)
}

// RunFrame runs every callback queued before the call. Callbacks that request
// another frame while running are deferred to the following frame.
func (l *Loop) RunFrame() int {
	l.frame++
	q := l.queue
	l.queue = nil
	for _, fn := range q {
		fn()
	}
	return len(q)
}

// Pending reports whether any callback is waiting for a frame.
func (l *Loop) Pending() bool { return len(l.queue) > 0 }

// Frame returns the number of frames run so far.
func (l *Loop) Frame() uint64 { return l.frame }
