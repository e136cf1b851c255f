package interaction

import (
	"math"

	"board/internal/connector"
	"board/internal/domain"
	"board/internal/geom"
	"board/internal/selection"
)

const frameTitleHeight = 32.0

type hitKind int

const (
	hitCanvas hitKind = iota
	hitBend
	hitResize
	hitBlockResize
	hitSide
	hitElement
	hitBlock
)

type hit struct {
	kind   hitKind
	id     string
	ref    domain.Ref
	handle selection.Handle
	side   domain.Side
}

// hitTest resolves a screen point in priority order: bend handle, resize
// handles, connector side handles, elements top-most first, blocks, canvas.
func (e *Engine) hitTest(screen geom.Point) hit {
	p := e.view.ToDesk(screen)
	handleR := e.deskLen(e.opts.HandleRadius)

	for _, id := range e.sel.Elements() {
		rt, ok := e.router.ResolveID(id)
		if ok && rt.Mid.Dist(p) <= handleR {
			return hit{kind: hitBend, id: id, ref: domain.ElementRef(id)}
		}
	}

	if id, ok := e.singleResizable(); ok {
		el, _ := e.store.Get(id)
		if h, ok := selection.HandleAt(el.Rect(), p, handleR); ok {
			return hit{kind: hitResize, id: id, ref: domain.ElementRef(id), handle: h}
		}
	}
	if id, ok := e.sel.Block(); ok {
		if b, found := e.store.Block(id); found {
			if h, ok := selection.HandleAt(b.Rect(), p, handleR); ok {
				return hit{kind: hitBlockResize, id: id, ref: domain.BlockRef(id), handle: h}
			}
		}
	}

	if ref, ok := e.singleAnchorable(); ok {
		if r, found := e.store.Bounds(ref); found {
			if side, ok := connector.HitAnchor(r, p, handleR); ok {
				return hit{kind: hitSide, id: ref.ID, ref: ref, side: side}
			}
		}
	}

	if id, ok := e.elementAt(p); ok {
		return hit{kind: hitElement, id: id, ref: domain.ElementRef(id)}
	}
	if id, ok := e.blockAt(p); ok {
		return hit{kind: hitBlock, id: id, ref: domain.BlockRef(id)}
	}
	return hit{kind: hitCanvas}
}

// elementAt returns the top-most element under desk point p.
func (e *Engine) elementAt(p geom.Point) (string, bool) {
	tol := e.deskLen(e.opts.HitTolerance)
	all := e.store.All()
	for i := len(all) - 1; i >= 0; i-- {
		el := all[i]
		switch el.Type {
		case domain.ElementConnector:
			rt, ok := e.router.Resolve(el)
			if ok && rt.DistTo(p) <= tol+rt.Style.Width/2 {
				return el.ID, true
			}
		case domain.ElementDrawing:
			if el.Rect().Contains(p) && strokeHit(el, p, tol) {
				return el.ID, true
			}
		case domain.ElementFrame:
			// Frames hit on their border and title strip only.
			r := el.Rect()
			inner := geom.Rect{X: r.X + tol, Y: r.Y + frameTitleHeight, W: r.W - 2*tol, H: r.H - frameTitleHeight - tol}
			if r.Expand(tol).Contains(p) && !(inner.W > 0 && inner.H > 0 && inner.Contains(p)) {
				return el.ID, true
			}
		default:
			if el.Rect().Contains(p) {
				return el.ID, true
			}
		}
	}
	return "", false
}

func (e *Engine) blockAt(p geom.Point) (string, bool) {
	blocks := e.store.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Rect().Contains(p) {
			return blocks[i].ID, true
		}
	}
	return "", false
}

// strokeHit tests p against every segment of a drawing within radius plus
// half the stroke width.
func strokeHit(el domain.Element, p geom.Point, radius float64) bool {
	d := el.Payload.Drawing
	if d == nil || len(d.Points) == 0 {
		return false
	}
	r := radius + d.Width/2
	r2 := r * r
	origin := geom.Pt(el.X, el.Y)
	if len(d.Points) == 1 {
		return p.DistSq(origin.Add(d.Points[0])) <= r2
	}
	for i := 1; i < len(d.Points); i++ {
		a := origin.Add(d.Points[i-1])
		b := origin.Add(d.Points[i])
		if geom.SegmentDistSq(p, a, b) <= r2 {
			return true
		}
	}
	return false
}

// singleResizable returns the only selected element when it can be resized.
func (e *Engine) singleResizable() (string, bool) {
	ids := e.sel.Elements()
	if len(ids) != 1 {
		return "", false
	}
	el, ok := e.store.Get(ids[0])
	if !ok || el.Type == domain.ElementConnector || el.Type == domain.ElementDrawing {
		return "", false
	}
	if editing, ok := e.store.Editing(); ok && editing == el.ID {
		return "", false
	}
	return el.ID, true
}

// singleAnchorable returns the selected element or block that shows
// connector side handles.
func (e *Engine) singleAnchorable() (domain.Ref, bool) {
	if id, ok := e.sel.Block(); ok {
		return domain.BlockRef(id), true
	}
	ids := e.sel.Elements()
	if len(ids) != 1 {
		return domain.Ref{}, false
	}
	el, ok := e.store.Get(ids[0])
	if !ok || !connector.Eligible(el.Type) {
		return domain.Ref{}, false
	}
	return domain.ElementRef(el.ID), true
}

// nearestSide picks the side of r whose anchor is closest to p.
func nearestSide(r geom.Rect, p geom.Point) domain.Side {
	best, bestD := domain.SideRight, math.Inf(1)
	for _, a := range connector.Anchors(r) {
		if d := a.Point.DistSq(p); d < bestD {
			best, bestD = a.Side, d
		}
	}
	return best
}
