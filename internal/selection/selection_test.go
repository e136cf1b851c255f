package selection_test

import (
	"math"
	"testing"

	"board/internal/domain"
	"board/internal/geom"
	"board/internal/selection"
)

func rectEl(id string, x, y, w, h float64) domain.Element {
	return domain.Element{ID: id, Type: domain.ElementNote, X: x, Y: y, Width: w, Height: h}
}

func TestMarquee(t *testing.T) {
	els := []domain.Element{
		rectEl("A", 0, 0, 50, 50),
		rectEl("B", 200, 200, 50, 50),
		rectEl("C", 10, 10, 50, 50),
	}
	view := domain.ViewState{Scale: 1}

	ids, ok := selection.Marquee(geom.RectFromPoints(geom.Pt(0, 0), geom.Pt(60, 60)), view, els)
	if !ok || len(ids) != 2 || ids[0] != "A" || ids[1] != "C" {
		t.Errorf("marquee selected %v ok=%v, want [A C]", ids, ok)
	}

	ids, ok = selection.Marquee(geom.Rect{X: 0, Y: 0, W: 2, H: 2}, view, els)
	if ok || len(ids) != 0 {
		t.Errorf("2x2 marquee selected %v", ids)
	}
}

func TestMarquee_UsesViewAtEvaluation(t *testing.T) {
	els := []domain.Element{rectEl("B", 200, 200, 50, 50)}
	// Zoomed 2x and panned: desk (200,200) is at screen (300,300).
	view := domain.ViewState{Offset: geom.Pt(-100, -100), Scale: 2}
	ids, _ := selection.Marquee(geom.Rect{X: 290, Y: 290, W: 20, H: 20}, view, els)
	if len(ids) != 1 {
		t.Errorf("expected B under zoomed marquee, got %v", ids)
	}
}

func TestResize_WestKeepsEastEdge(t *testing.T) {
	start := geom.Rect{X: 100, Y: 100, W: 200, H: 100}
	got := selection.Resize(start, selection.HandleW, geom.Pt(30, 0), geom.Size{W: 120, H: 80}, false)
	if got.X != 130 || got.W != 170 || got.X+got.W != 300 {
		t.Errorf("west resize = %+v", got)
	}
	got = selection.Resize(start, selection.HandleNW, geom.Pt(500, 500), geom.Size{W: 120, H: 80}, false)
	if got.W != 120 || got.H != 80 || got.X+got.W != 300 || got.Y+got.H != 200 {
		t.Errorf("clamped north-west resize = %+v", got)
	}
}

func TestResize_AspectLock(t *testing.T) {
	min := selection.MinSize(domain.ElementNote)
	start := geom.Rect{X: 0, Y: 0, W: 200, H: 150}
	ratio := start.W / start.H

	deltas := []struct {
		h selection.Handle
		d geom.Point
	}{
		{selection.HandleSE, geom.Pt(80, 10)},
		{selection.HandleSE, geom.Pt(5, 90)},
		{selection.HandleNW, geom.Pt(150, 140)},
		{selection.HandleE, geom.Pt(-190, 0)},
		{selection.HandleS, geom.Pt(0, -140)},
		{selection.HandleSW, geom.Pt(400, -20)},
	}
	for _, tt := range deltas {
		got := selection.Resize(start, tt.h, tt.d, min, true)
		if math.Abs(got.W/got.H-ratio) > 1e-9 {
			t.Errorf("%s %+v: ratio %v, want %v", tt.h, tt.d, got.W/got.H, ratio)
		}
		if got.W < min.W-1e-9 || got.H < min.H-1e-9 {
			t.Errorf("%s %+v: %vx%v below minimum", tt.h, tt.d, got.W, got.H)
		}
	}
}

func TestResize_AspectLockTallMinimum(t *testing.T) {
	// A wide note: the width floor is reached last.
	start := geom.Rect{W: 400, H: 100}
	got := selection.Resize(start, selection.HandleSE, geom.Pt(-390, -95), geom.Size{W: 120, H: 80}, true)
	if got.H != 80 || got.W != 320 {
		t.Errorf("got %vx%v, want 320x80", got.W, got.H)
	}
}

func TestMinSizeOrdering(t *testing.T) {
	f := selection.MinSize(domain.ElementFrame)
	tx := selection.MinSize(domain.ElementText)
	n := selection.MinSize(domain.ElementNote)
	if !(f.W < tx.W && tx.W < n.W) {
		t.Errorf("expected frame < text < others, got %v %v %v", f, tx, n)
	}
}

func TestHandleAt(t *testing.T) {
	r := geom.Rect{X: 0, Y: 0, W: 100, H: 50}
	if h, ok := selection.HandleAt(r, geom.Pt(98, 52), 6); !ok || h != selection.HandleSE {
		t.Errorf("got %q %v, want se", h, ok)
	}
	if h, ok := selection.HandleAt(r, geom.Pt(50, 0), 6); !ok || h != selection.HandleN {
		t.Errorf("got %q %v, want n", h, ok)
	}
	if _, ok := selection.HandleAt(r, geom.Pt(50, 25), 6); ok {
		t.Error("center should not hit a handle")
	}
}

func TestState_BlockExclusive(t *testing.T) {
	s := selection.New()
	s.SetElements("1", "2")
	s.SelectBlock("b")
	if s.Len() != 0 {
		t.Error("selecting a block must clear elements")
	}
	s.AddElement("3")
	if _, ok := s.Block(); ok {
		t.Error("selecting an element must clear the block")
	}
	s.Rekey(domain.ElementRef("3"), "30")
	if !s.HasElement("30") || s.HasElement("3") {
		t.Errorf("rekey not applied: %v", s.Elements())
	}
}
