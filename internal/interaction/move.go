package interaction

import (
	"board/internal/domain"
	"board/internal/geom"
	"board/internal/selection"
)

// selectDown dispatches a select-tool press by what lies under the pointer.
func (e *Engine) selectDown(b base, ev PointerEvent) {
	h := e.hitTest(b.origin)
	switch h.kind {
	case hitBend:
		e.startBend(b, h.id)
	case hitResize:
		e.startResize(b, h.id, h.handle)
	case hitBlockResize:
		e.startBlockResize(b, h.id, h.handle)
	case hitSide:
		e.startConnect(b, domain.AnchorRef{Target: h.ref, Side: h.side})
	case hitElement:
		e.store.ClearEditing()
		if ev.Shift {
			e.sel.Toggle(h.id)
			if !e.sel.HasElement(h.id) {
				return
			}
		} else if !e.sel.HasElement(h.id) {
			e.sel.SetElements(h.id)
		}
		e.startDrag(b, h.id)
	case hitBlock:
		e.store.ClearEditing()
		e.sel.SelectBlock(h.id)
		e.startBlockDrag(b, h.id)
	default:
		if ev.Touch {
			e.startPan(b)
			return
		}
		if !ev.Shift {
			e.sel.Clear()
		}
		e.store.ClearEditing()
		_ = e.begin(&marquee{base: b, current: b.origin})
	}
}

func (e *Engine) startPan(b base) {
	if e.begin(&panning{b}) == nil {
		e.view.BeginPan(b.origin)
	}
}

// ──── Element drag ────

func (e *Engine) startDrag(b base, clicked string) {
	g := &dragging{base: b, starts: make(map[string]geom.Rect), clicked: clicked}
	for _, id := range e.sel.Elements() {
		el, ok := e.store.Get(id)
		// Connectors follow their targets.
		if !ok || el.Type == domain.ElementConnector {
			continue
		}
		g.ids = append(g.ids, id)
		g.starts[id] = el.Rect()
	}
	_ = e.begin(g)
}

func (e *Engine) dragMove(g *dragging, p geom.Point) {
	if !g.active {
		if !g.pastThreshold(p, e.opts.DragThreshold) {
			return
		}
		g.active = true
		e.router.FollowDrag = true
	}
	d := e.deskDelta(g.origin, p)
	for _, id := range g.ids {
		e.store.Overrides.SetRect(domain.ElementRef(id), g.starts[id].Translate(d))
	}
}

func (e *Engine) finishDrag(g *dragging) {
	if !g.active {
		e.end()
		// A click inside a multi-selection narrows it to the clicked element.
		if e.sel.Len() > 1 && g.clicked != "" && e.sel.HasElement(g.clicked) {
			e.sel.SetElements(g.clicked)
		}
		return
	}
	rects := make(map[string]geom.Rect, len(g.ids))
	for _, id := range g.ids {
		if r, ok := e.store.Overrides.Rect(domain.ElementRef(id)); ok {
			rects[id] = r
		}
	}
	e.end()
	e.hist.Group(func() {
		for _, id := range g.ids {
			if r, ok := rects[id]; ok {
				e.commitGeometry(id, r)
			}
		}
	})
	e.router.Refit()
}

// commitGeometry writes r to the store, persists it and records history.
func (e *Engine) commitGeometry(id string, r geom.Rect) {
	before, ok := e.store.Get(id)
	if !ok || before.Rect() == r {
		return
	}
	patch := domain.GeometryPatch(r)
	after, _ := e.store.Update(id, patch)
	e.persist.UpdateElement(id, patch)
	e.hist.RecordUpdate(before, after)
}

// ──── Element resize ────

func (e *Engine) startResize(b base, id string, h selection.Handle) {
	el, ok := e.store.Get(id)
	if !ok {
		return
	}
	_ = e.begin(&resizing{
		base:   b,
		id:     id,
		handle: h,
		start:  el.Rect(),
		min:    selection.MinSize(el.Type),
		lock:   selection.LocksAspect(el.Type),
	})
}

func (e *Engine) resizeMove(g *resizing, p geom.Point) {
	if !g.active {
		if !g.pastThreshold(p, e.opts.DragThreshold) {
			return
		}
		g.active = true
		e.router.FollowDrag = true
	}
	r := selection.Resize(g.start, g.handle, e.deskDelta(g.origin, p), g.min, g.lock)
	e.store.Overrides.SetRect(domain.ElementRef(g.id), r)
}

func (e *Engine) finishResize(g *resizing) {
	r, ok := e.store.Overrides.Rect(domain.ElementRef(g.id))
	e.end()
	if !g.active || !ok {
		return
	}
	e.commitGeometry(g.id, r)
	e.router.Refit()
}

// ──── Material block drag and resize ────

func (e *Engine) startBlockDrag(b base, id string) {
	blk, ok := e.store.Block(id)
	if !ok {
		return
	}
	_ = e.begin(&blockDragging{base: b, id: id, start: blk.Rect()})
}

func (e *Engine) blockDragMove(g *blockDragging, p geom.Point) {
	if !g.active {
		if !g.pastThreshold(p, e.opts.DragThreshold) {
			return
		}
		g.active = true
		e.router.FollowDrag = true
	}
	e.store.Overrides.SetRect(domain.BlockRef(g.id), g.start.Translate(e.deskDelta(g.origin, p)))
}

func (e *Engine) finishBlockDrag(g *blockDragging) {
	r, ok := e.store.Overrides.Rect(domain.BlockRef(g.id))
	e.end()
	if g.active && ok {
		e.commitBlockGeometry(g.id, r)
	}
}

func (e *Engine) startBlockResize(b base, id string, h selection.Handle) {
	blk, ok := e.store.Block(id)
	if !ok {
		return
	}
	_ = e.begin(&blockResizing{base: b, id: id, handle: h, start: blk.Rect()})
}

func (e *Engine) blockResizeMove(g *blockResizing, p geom.Point) {
	if !g.active {
		if !g.pastThreshold(p, e.opts.DragThreshold) {
			return
		}
		g.active = true
		e.router.FollowDrag = true
	}
	r := selection.Resize(g.start, g.handle, e.deskDelta(g.origin, p), selection.BlockMinSize, false)
	e.store.Overrides.SetRect(domain.BlockRef(g.id), r)
}

func (e *Engine) finishBlockResize(g *blockResizing) {
	r, ok := e.store.Overrides.Rect(domain.BlockRef(g.id))
	e.end()
	if g.active && ok {
		e.commitBlockGeometry(g.id, r)
	}
}

func (e *Engine) commitBlockGeometry(id string, r geom.Rect) {
	b, ok := e.store.Block(id)
	if !ok || b.Rect() == r {
		return
	}
	patch := domain.BlockGeometryPatch(r)
	e.store.UpdateBlock(id, patch)
	e.persist.UpdateBlock(id, patch)
	e.router.Refit()
}
