package viewport_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"board/internal/domain"
	"board/internal/geom"
	"board/internal/tick"
	"board/internal/viewport"
)

type saveRecorder struct {
	mu    sync.Mutex
	saves []domain.ViewState
}

func (r *saveRecorder) save(_ string, v domain.ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, v)
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func newController(t *testing.T) (*viewport.Controller, *tick.Loop, *saveRecorder) {
	t.Helper()
	loop := tick.NewLoop()
	rec := &saveRecorder{}
	c := viewport.New(loop, time.Hour, rec.save)
	c.Resize(800, 600)
	t.Cleanup(c.Close)
	return c, loop, rec
}

func TestZoomKeepsAnchorFixed(t *testing.T) {
	c, _, _ := newController(t)
	c.PanBy(geom.Pt(37, -12))
	anchor := geom.Pt(250, 410)
	before := c.ToDesk(anchor)

	for _, dy := range []float64{-120, -300, 80, 500, -40} {
		c.Wheel(anchor, dy)
		after := c.ToDesk(anchor)
		if !after.Near(before, 1e-9) {
			t.Fatalf("desk point under cursor moved: %+v -> %+v", before, after)
		}
	}
}

func TestZoomClamped(t *testing.T) {
	c, _, _ := newController(t)
	for i := 0; i < 50; i++ {
		c.ZoomIn()
	}
	if c.Scale() != viewport.MaxScale {
		t.Errorf("scale = %v, want %v", c.Scale(), viewport.MaxScale)
	}
	for i := 0; i < 80; i++ {
		c.ZoomOut()
	}
	if c.Scale() != viewport.MinScale {
		t.Errorf("scale = %v, want %v", c.Scale(), viewport.MinScale)
	}
}

func TestZoomButtonsAnchorAtCenter(t *testing.T) {
	c, _, _ := newController(t)
	center := geom.Pt(400, 300)
	before := c.ToDesk(center)
	c.ZoomIn()
	if after := c.ToDesk(center); !after.Near(before, 1e-9) {
		t.Errorf("center moved: %+v -> %+v", before, after)
	}
}

func TestPanCoalescedPerFrame(t *testing.T) {
	c, loop, rec := newController(t)
	c.BeginPan(geom.Pt(100, 100))
	c.PanTo(geom.Pt(110, 100))
	c.PanTo(geom.Pt(130, 90))
	if c.View().Offset != (geom.Point{}) {
		t.Fatal("offset changed before the frame ran")
	}
	loop.RunFrame()
	if got := c.View().Offset; got != geom.Pt(30, -10) {
		t.Fatalf("offset = %+v, want (30,-10)", got)
	}
	c.PanTo(geom.Pt(140, 90))
	c.EndPan()
	if got := c.View().Offset; got != geom.Pt(40, -10) {
		t.Errorf("EndPan did not apply last position: %+v", got)
	}
	if rec.count() != 1 {
		t.Errorf("expected one immediate save at gesture end, got %d", rec.count())
	}
}

func TestPinchScalesAroundMidpoint(t *testing.T) {
	c, _, _ := newController(t)
	if c.PointerDown(1, geom.Pt(300, 300)) {
		t.Fatal("one pointer must not start a pinch")
	}
	if !c.PointerDown(2, geom.Pt(500, 300)) {
		t.Fatal("second pointer should start a pinch")
	}
	mid := geom.Pt(400, 300)
	anchor := c.ToDesk(mid)

	c.PointerMove(1, geom.Pt(200, 300))
	c.PointerMove(2, geom.Pt(600, 300))
	if math.Abs(c.Scale()-2) > 1e-9 {
		t.Errorf("scale = %v, want 2", c.Scale())
	}
	if got := c.ToDesk(mid); !got.Near(anchor, 1e-9) {
		t.Errorf("midpoint drifted: %+v vs %+v", got, anchor)
	}
	if !c.PointerUp(2) || c.Pinching() {
		t.Error("pinch should end when a pinch pointer lifts")
	}
}

func TestRestoreLegacyRecord(t *testing.T) {
	c, _, rec := newController(t)
	center := geom.Pt(100, 50)
	c.Restore(&domain.ViewRecord{Version: 1, Center: &center, Scale: 2})

	if c.Scale() != 2 {
		t.Fatalf("scale = %v, want 2", c.Scale())
	}
	if got := c.ToDesk(geom.Pt(400, 300)); !got.Near(center, 1e-9) {
		t.Errorf("viewport center shows %+v, want %+v", got, center)
	}
	if rec.count() != 0 {
		t.Error("restore must not save")
	}
}

func TestRestoreLegacyBeforeResize(t *testing.T) {
	loop := tick.NewLoop()
	c := viewport.New(loop, time.Hour, func(string, domain.ViewState) {})
	defer c.Close()
	center := geom.Pt(10, 10)
	c.Restore(&domain.ViewRecord{Version: 1, Center: &center, Scale: 1})
	c.Resize(200, 100)
	if got := c.ToDesk(geom.Pt(100, 50)); !got.Near(center, 1e-9) {
		t.Errorf("center after resize = %+v, want %+v", got, center)
	}
}

func TestRestoreCurrentAndNil(t *testing.T) {
	c, _, _ := newController(t)
	off := geom.Pt(-20, 15)
	c.Restore(&domain.ViewRecord{Version: 2, Offset: &off, Scale: 9})
	if c.View().Offset != off || c.Scale() != viewport.MaxScale {
		t.Errorf("unexpected view %+v", c.View())
	}
	c.Restore(nil)
	if c.View() != (domain.ViewState{Scale: viewport.ReferenceScale}) {
		t.Errorf("nil record should reset, got %+v", c.View())
	}
}

func TestDebouncedSave(t *testing.T) {
	loop := tick.NewLoop()
	rec := &saveRecorder{}
	c := viewport.New(loop, 20*time.Millisecond, rec.save)
	c.Resize(800, 600)
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Wheel(geom.Pt(10, 10), -50)
	}
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("expected one save after quiet period, got %d", rec.count())
	}
	if rec.saves[0] != c.View() {
		t.Errorf("saved %+v, want latest %+v", rec.saves[0], c.View())
	}
}

func TestTransformAppliedOncePerFrame(t *testing.T) {
	c, loop, _ := newController(t)
	c.ZoomIn()
	c.ZoomIn()
	if c.Applied().Scale != viewport.ReferenceScale {
		t.Fatal("transform applied before frame")
	}
	loop.RunFrame()
	if c.Applied() != c.View() {
		t.Errorf("applied %+v, want %+v", c.Applied(), c.View())
	}
}

func TestSaveUsesKeyAtChangeTime(t *testing.T) {
	loop := tick.NewLoop()
	var keys []string
	c := viewport.New(loop, time.Hour, func(key string, _ domain.ViewState) { keys = append(keys, key) })
	defer c.Close()
	c.SetKey("board-1")
	c.PanBy(geom.Pt(5, 5))
	c.SetKey("board-2")
	c.FlushSave()
	if len(keys) != 1 || keys[0] != "board-1" {
		t.Errorf("saved under %v, want [board-1]", keys)
	}
}
