package connector_test

import (
	"testing"

	"board/internal/connector"
	"board/internal/domain"
	"board/internal/elements"
	"board/internal/geom"
)

func TestPath_RightToLeft(t *testing.T) {
	r1 := geom.Rect{X: 0, Y: 0, W: 100, H: 60}
	r2 := geom.Rect{X: 300, Y: 0, W: 100, H: 60}
	from := connector.AnchorFor(r1, domain.SideRight)
	to := connector.AnchorFor(r2, domain.SideLeft)
	p := connector.Path(from, to, geom.Point{})

	if p.P0 != geom.Pt(110, 30) {
		t.Errorf("start = %+v, want (110,30)", p.P0)
	}
	if p.P3 != geom.Pt(290, 30) {
		t.Errorf("end = %+v, want (290,30)", p.P3)
	}
	// Distance 180 -> control distance 63.
	if !p.P1.Near(geom.Pt(173, 30), 1e-9) || !p.P2.Near(geom.Pt(227, 30), 1e-9) {
		t.Errorf("control points = %+v %+v", p.P1, p.P2)
	}
	if !(p.P1.X > p.P0.X && p.P1.X < p.P3.X) || !(p.P2.X < p.P3.X && p.P2.X > p.P0.X) {
		t.Error("control points must lie strictly between start and end")
	}
}

func TestControlDistanceClamped(t *testing.T) {
	tests := []struct {
		d    float64
		want float64
	}{
		{10, connector.MinControl},
		{200, 70},
		{5000, connector.MaxControl},
	}
	for _, tt := range tests {
		got := connector.ControlDistance(geom.Pt(0, 0), geom.Pt(tt.d, 0))
		if got != tt.want {
			t.Errorf("d=%v: got %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestBendFor_HitsDesiredMidpoint(t *testing.T) {
	from := connector.AnchorFor(geom.Rect{X: 0, Y: 0, W: 100, H: 60}, domain.SideBottom)
	to := connector.AnchorFor(geom.Rect{X: 300, Y: 200, W: 100, H: 60}, domain.SideLeft)
	desired := geom.Pt(180, 40)
	bend := connector.BendFor(from, to, desired)
	got := connector.Midpoint(connector.Path(from, to, bend))
	if !got.Near(desired, 1e-9) {
		t.Errorf("midpoint = %+v, want %+v", got, desired)
	}
}

func TestDraftEnd_DominantAxis(t *testing.T) {
	from := connector.AnchorFor(geom.Rect{W: 100, H: 60}, domain.SideRight)
	tests := []struct {
		cursor geom.Point
		side   domain.Side
	}{
		{geom.Pt(300, 40), domain.SideLeft},
		{geom.Pt(-200, 40), domain.SideRight},
		{geom.Pt(120, 400), domain.SideTop},
		{geom.Pt(120, -400), domain.SideBottom},
	}
	for _, tt := range tests {
		a := connector.DraftEnd(from, tt.cursor)
		if a.Side != tt.side || a.Point != tt.cursor {
			t.Errorf("cursor %+v: got side %s at %+v, want %s", tt.cursor, a.Side, a.Point, tt.side)
		}
	}
}

func TestFindHover_ArmsNearAnchorOnly(t *testing.T) {
	targets := []connector.Target{
		{Ref: domain.ElementRef("a"), Rect: geom.Rect{X: 0, Y: 0, W: 100, H: 60}},
		{Ref: domain.BlockRef("a"), Rect: geom.Rect{X: 300, Y: 0, W: 200, H: 120}},
	}
	h, ok := connector.FindHover(targets, geom.Pt(50, 30), 16, 14, domain.Ref{})
	if !ok || h.Target.Ref != domain.ElementRef("a") || h.Armed {
		t.Errorf("inside without anchor: %+v ok=%v", h, ok)
	}

	h, ok = connector.FindHover(targets, geom.Pt(292, 62), 16, 14, domain.Ref{})
	if !ok || h.Target.Ref != domain.BlockRef("a") || !h.Armed || h.Side != domain.SideLeft {
		t.Errorf("near block left anchor: %+v ok=%v", h, ok)
	}

	if _, ok := connector.FindHover(targets, geom.Pt(50, 30), 16, 14, domain.ElementRef("a")); ok {
		t.Error("excluded target was hovered")
	}
	if _, ok := connector.FindHover(targets, geom.Pt(200, 500), 16, 14, domain.Ref{}); ok {
		t.Error("empty canvas reported a hover")
	}
}

func newStore() *elements.Store {
	s := elements.NewStore()
	s.Upsert(domain.Element{ID: "a", Type: domain.ElementNote, Width: 100, Height: 60,
		Payload: domain.DefaultPayload(domain.ElementNote)})
	s.UpsertBlock(domain.MaterialBlock{ID: "b", X: 300, Width: 200, Height: 60})
	p := domain.DefaultPayload(domain.ElementConnector)
	p.Connector.From = domain.AnchorRef{Target: domain.ElementRef("a"), Side: domain.SideRight}
	p.Connector.To = domain.AnchorRef{Target: domain.BlockRef("b"), Side: domain.SideLeft}
	s.Upsert(domain.Element{ID: "c", Type: domain.ElementConnector, Payload: p})
	return s
}

func TestRouter_DanglingSkipped(t *testing.T) {
	s := newStore()
	r := connector.NewRouter(s)
	if len(r.Routes()) != 1 {
		t.Fatal("expected one route")
	}
	s.RemoveBlock("b")
	if len(r.Routes()) != 0 {
		t.Error("connector to a deleted block was still routed")
	}
	if !s.Has("c") {
		t.Error("connector must not be removed with its target")
	}
}

func TestRouter_FollowDrag(t *testing.T) {
	s := newStore()
	r := connector.NewRouter(s)
	s.Overrides.SetRect(domain.ElementRef("a"), geom.Rect{X: 0, Y: 100, W: 100, H: 60})

	rt, _ := r.ResolveID("c")
	if rt.From.Point != geom.Pt(110, 30) {
		t.Errorf("without FollowDrag the stored bounds must be used, got %+v", rt.From.Point)
	}
	r.FollowDrag = true
	rt, _ = r.ResolveID("c")
	if rt.From.Point != geom.Pt(110, 130) {
		t.Errorf("with FollowDrag the override must be used, got %+v", rt.From.Point)
	}
}

func TestRouter_RefitBounds(t *testing.T) {
	s := newStore()
	r := connector.NewRouter(s)
	changed := r.Refit()
	if len(changed) != 1 || changed[0] != "c" {
		t.Fatalf("Refit changed %v", changed)
	}
	c, _ := s.Get("c")
	if c.X != 110 || c.X+c.Width != 290 {
		t.Errorf("connector bounds = %+v", c.Rect())
	}
	if len(r.Refit()) != 0 {
		t.Error("second Refit should be a no-op")
	}
}

func TestFacingSides(t *testing.T) {
	a := geom.Rect{X: 0, Y: 0, W: 100, H: 100}
	tests := []struct {
		b        geom.Rect
		from, to domain.Side
	}{
		{geom.Rect{X: 300, Y: 20, W: 100, H: 100}, domain.SideRight, domain.SideLeft},
		{geom.Rect{X: -300, Y: 20, W: 100, H: 100}, domain.SideLeft, domain.SideRight},
		{geom.Rect{X: 20, Y: 300, W: 100, H: 100}, domain.SideBottom, domain.SideTop},
		{geom.Rect{X: 20, Y: -300, W: 100, H: 100}, domain.SideTop, domain.SideBottom},
	}
	for _, tt := range tests {
		from, to := connector.FacingSides(a, tt.b)
		if from != tt.from || to != tt.to {
			t.Errorf("b=%+v: got %s→%s, want %s→%s", tt.b, from, to, tt.from, tt.to)
		}
	}
}
