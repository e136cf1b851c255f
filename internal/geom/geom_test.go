package geom

import (
	"math"
	"testing"
)

func TestRectFromPoints(t *testing.T) {
	r := RectFromPoints(Pt(10, 40), Pt(-5, 20))
	want := Rect{X: -5, Y: 20, W: 15, H: 20}
	if r != want {
		t.Errorf("RectFromPoints = %+v, want %+v", r, want)
	}
}

func TestSegmentDistSq(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"above middle", Pt(5, 3), 9},
		{"past end", Pt(14, 0), 16},
		{"before start", Pt(-3, 4), 25},
		{"on segment", Pt(7, 0), 0},
	}
	a, b := Pt(0, 0), Pt(10, 0)
	for _, tt := range tests {
		if got := SegmentDistSq(tt.p, a, b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: SegmentDistSq = %v, want %v", tt.name, got, tt.want)
		}
	}
	if got := SegmentDistSq(Pt(3, 4), Pt(0, 0), Pt(0, 0)); got != 25 {
		t.Errorf("degenerate segment: got %v, want 25", got)
	}
}

func TestDeskScreenRoundTrip(t *testing.T) {
	offset := Pt(120, -40)
	scale := 1.75
	screen := Pt(333, 222)
	desk := ToDesk(screen, offset, scale)
	back := ToScreen(desk, offset, scale)
	if !back.Near(screen, 1e-9) {
		t.Errorf("round trip = %+v, want %+v", back, screen)
	}
}

func TestOverlaps(t *testing.T) {
	a := Rect{0, 0, 50, 50}
	if !a.Overlaps(Rect{40, 40, 20, 20}) {
		t.Error("expected overlap")
	}
	if a.Overlaps(Rect{200, 200, 50, 50}) {
		t.Error("expected no overlap")
	}
}

func TestRectDistTo(t *testing.T) {
	r := Rect{0, 0, 10, 10}
	if d := r.DistTo(Pt(5, 5)); d != 0 {
		t.Errorf("inside distance = %v", d)
	}
	if d := r.DistTo(Pt(13, 14)); math.Abs(d-5) > 1e-9 {
		t.Errorf("corner distance = %v, want 5", d)
	}
}

func TestCubicEndpoints(t *testing.T) {
	c := Cubic{Pt(0, 0), Pt(10, 0), Pt(20, 10), Pt(30, 10)}
	if c.At(0) != c.P0 || c.At(1) != c.P3 {
		t.Error("curve must start at P0 and end at P3")
	}
}
