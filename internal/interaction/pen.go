package interaction

import (
	"board/internal/domain"
	"board/internal/geom"
)

// ──── Pen ────

func (e *Engine) startDraw(b base) {
	g := &drawing{
		base:   b,
		points: []geom.Point{e.view.ToDesk(b.origin)},
		last:   b.origin,
		color:  e.opts.PenColor,
		width:  e.opts.PenWidth,
	}
	_ = e.begin(g)
}

// drawMove appends a sample once the pointer has moved more than the
// minimum screen distance since the last one.
func (e *Engine) drawMove(g *drawing, p geom.Point) {
	if p.Dist(g.last) <= e.opts.PenMinDistance {
		return
	}
	g.points = append(g.points, e.view.ToDesk(p))
	g.last = p
}

// finishDraw persists the stroke as one drawing element whose bounds are the
// padded tight box of its points, with points made relative to that box.
func (e *Engine) finishDraw(g *drawing) {
	e.end()
	el, ok := StrokeElement(g.points, g.color, g.width)
	if !ok {
		return
	}
	_, _ = e.createElement(el)
}

// StrokeElement builds a drawing element from absolute desk-space points.
func StrokeElement(points []geom.Point, color string, width float64) (domain.Element, bool) {
	box, ok := geom.BoundsOf(points)
	if !ok {
		return domain.Element{}, false
	}
	box = box.Expand(width/2 + 2)
	rel := make([]geom.Point, len(points))
	for i, p := range points {
		rel[i] = p.Sub(box.Min())
	}
	el := domain.Element{
		Type:    domain.ElementDrawing,
		Payload: domain.Payload{Drawing: &domain.DrawingPayload{Points: rel, Color: color, Width: width}},
	}
	el.SetRect(box)
	return el, true
}

// ──── Eraser ────

func (e *Engine) startErase(b base) {
	g := &erasing{base: b, erased: make(map[string]bool)}
	if e.begin(g) != nil {
		return
	}
	g.lastSample = e.opts.Now()
	e.eraseAt(g, b.origin)
}

func (e *Engine) eraseMove(g *erasing, p geom.Point) {
	now := e.opts.Now()
	if now.Sub(g.lastSample) < e.opts.EraseInterval {
		return
	}
	g.lastSample = now
	e.eraseAt(g, p)
}

// eraseAt deletes every stroke the eraser circle touches. A stroke is
// considered only when its bounds are within the radius, and each stroke is
// deleted at most once per gesture.
func (e *Engine) eraseAt(g *erasing, screen geom.Point) {
	p := e.view.ToDesk(screen)
	radius := e.deskLen(e.opts.EraseRadius)
	for _, el := range e.store.All() {
		if el.Type != domain.ElementDrawing || g.erased[el.ID] {
			continue
		}
		if el.Rect().DistTo(p) > radius {
			continue
		}
		if !strokeHit(el, p, radius) {
			continue
		}
		g.erased[el.ID] = true
		e.deleteElement(el.ID)
	}
}

// penPreview returns the in-progress stroke, in desk coordinates.
func (e *Engine) penPreview() []geom.Point {
	if g, ok := e.current.(*drawing); ok {
		return append([]geom.Point(nil), g.points...)
	}
	return nil
}
