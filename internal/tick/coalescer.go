package tick

// Coalescer keeps only the latest value pushed between two frames and flushes
// it at most once per frame: a pending slot plus a scheduled flag.
type Coalescer[T any] struct {
	sched     Scheduler
	flush     func(T)
	pending   T
	has       bool
	scheduled bool
	gen       uint64
}

func NewCoalescer[T any](sched Scheduler, flush func(T)) *Coalescer[T] {
	return &Coalescer[T]{sched: sched, flush: flush}
}

// Push stores v and makes sure a flush is scheduled.
func (c *Coalescer[T]) Push(v T) {
	c.pending = v
	c.has = true
	if c.scheduled {
		return
	}
	c.scheduled = true
	gen := c.gen
	c.sched.RequestFrame(func() {
		if gen != c.gen {
			return
		}
		c.scheduled = false
		c.Flush()
	})
}

// Flush applies the pending value now, if any.
func (c *Coalescer[T]) Flush() {
	if !c.has {
		return
	}
	v := c.pending
	var zero T
	c.pending = zero
	c.has = false
	c.flush(v)
}

// Discard drops the pending value and invalidates any scheduled flush.
func (c *Coalescer[T]) Discard() {
	var zero T
	c.pending = zero
	c.has = false
	c.scheduled = false
	c.gen++
}

// HasPending reports whether a value is waiting.
func (c *Coalescer[T]) HasPending() bool { return c.has }
