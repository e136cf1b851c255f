package tick

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescer_OneFlushPerFrame(t *testing.T) {
	loop := NewLoop()
	var flushed []int
	c := NewCoalescer(loop, func(v int) { flushed = append(flushed, v) })

	for i := 1; i <= 5; i++ {
		c.Push(i)
	}
	if n := loop.RunFrame(); n != 1 {
		t.Fatalf("expected one scheduled callback, got %d", n)
	}
	if len(flushed) != 1 || flushed[0] != 5 {
		t.Fatalf("expected single flush of latest value, got %v", flushed)
	}

	if loop.RunFrame() != 0 {
		t.Error("idle frame ran callbacks")
	}

	c.Push(7)
	loop.RunFrame()
	if len(flushed) != 2 || flushed[1] != 7 {
		t.Errorf("second frame flush = %v", flushed)
	}
}

func TestCoalescer_Discard(t *testing.T) {
	loop := NewLoop()
	calls := 0
	c := NewCoalescer(loop, func(int) { calls++ })
	c.Push(1)
	c.Discard()
	loop.RunFrame()
	if calls != 0 {
		t.Errorf("discarded value flushed %d times", calls)
	}

	c.Push(2)
	loop.RunFrame()
	if calls != 1 {
		t.Errorf("push after discard: calls = %d, want 1", calls)
	}
}

func TestCoalescer_FlushNow(t *testing.T) {
	loop := NewLoop()
	var got int
	c := NewCoalescer(loop, func(v int) { got = v })
	c.Push(3)
	c.Flush()
	if got != 3 || c.HasPending() {
		t.Fatalf("Flush did not apply pending value")
	}
	got = 0
	loop.RunFrame()
	if got != 0 {
		t.Error("scheduled frame re-applied an already flushed value")
	}
}

func TestDebouncer_LastCallbackWins(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var last atomic.Int32
	var runs atomic.Int32
	for i := int32(1); i <= 3; i++ {
		v := i
		d.Trigger(func() { last.Store(v); runs.Add(1) })
	}
	time.Sleep(80 * time.Millisecond)
	if runs.Load() != 1 || last.Load() != 3 {
		t.Errorf("runs=%d last=%d, want 1/3", runs.Load(), last.Load())
	}
}

func TestDebouncer_FlushAndCancel(t *testing.T) {
	d := NewDebouncer(time.Hour)
	ran := false
	d.Trigger(func() { ran = true })
	if !d.Pending() {
		t.Fatal("expected pending callback")
	}
	d.Flush()
	if !ran || d.Pending() {
		t.Fatal("Flush did not run the callback")
	}

	ran = false
	d.Trigger(func() { ran = true })
	d.Cancel()
	d.Flush()
	if ran {
		t.Error("cancelled callback ran")
	}
}
