package interaction

import (
	"board/internal/connector"
	"board/internal/domain"
	"board/internal/geom"
)

// startConnectorTool begins a connector from the target under the pointer,
// using the armed side or, when pressed inside the target, its nearest side.
func (e *Engine) startConnectorTool(b base) {
	p := e.view.ToDesk(b.origin)
	h, ok := connector.FindHover(e.router.Targets(), p,
		e.deskLen(e.opts.HoverTolerance), e.deskLen(e.opts.AnchorRadius), domain.Ref{})
	if !ok {
		return
	}
	side := h.Side
	if !h.Armed {
		side = nearestSide(h.Target.Rect, p)
	}
	e.startConnect(b, domain.AnchorRef{Target: h.Target.Ref, Side: side})
}

func (e *Engine) startConnect(b base, from domain.AnchorRef) {
	_ = e.begin(&connecting{base: b, from: from, cursor: e.view.ToDesk(b.origin)})
}

func (e *Engine) connectMove(g *connecting, p geom.Point) {
	g.cursor = e.view.ToDesk(p)
	g.hover, g.hasHov = connector.FindHover(e.router.Targets(), g.cursor,
		e.deskLen(e.opts.HoverTolerance), e.deskLen(e.opts.AnchorRadius), g.from.Target)
}

// finishConnect creates the connector when released over an armed side.
// Anything else aborts silently.
func (e *Engine) finishConnect(g *connecting) {
	e.end()
	if !g.hasHov || !g.hover.Armed {
		return
	}
	p := domain.DefaultPayload(domain.ElementConnector)
	p.Connector.From = g.from
	p.Connector.To = domain.AnchorRef{Target: g.hover.Target.Ref, Side: g.hover.Side}
	if p.Connector.Validate() != nil {
		return
	}
	el := domain.Element{Type: domain.ElementConnector, Payload: p}
	if rt, ok := e.router.Resolve(el); ok {
		el.SetRect(rt.Bounds())
	}
	if _, err := e.createElement(el); err != nil {
		return
	}
	if e.tool == ToolConnector {
		e.tool = ToolSelect
	}
}

// draft returns the preview curve of a connector being created.
func (e *Engine) draft(g *connecting) (geom.Cubic, bool) {
	r, ok := e.store.Bounds(g.from.Target)
	if !ok {
		return geom.Cubic{}, false
	}
	from := connector.AnchorFor(r, g.from.Side)
	to := connector.DraftEnd(from, g.cursor)
	if g.hasHov && g.hover.Armed {
		to = connector.AnchorFor(g.hover.Target.Rect, g.hover.Side)
	}
	return connector.Path(from, to, geom.Point{}), true
}

// ──── Bend ────

func (e *Engine) startBend(b base, id string) {
	el, ok := e.store.Get(id)
	if !ok || el.Payload.Connector == nil {
		return
	}
	_ = e.begin(&bending{base: b, id: id, bend: el.Payload.Connector.Bend})
}

// bendMove recomputes the anchors every frame, since the targets may have
// moved since the connector was created.
func (e *Engine) bendMove(g *bending, p geom.Point) {
	if !g.active {
		if !g.pastThreshold(p, e.opts.DragThreshold) {
			return
		}
		g.active = true
		e.router.FollowDrag = true
	}
	rt, ok := e.router.ResolveID(g.id)
	if !ok {
		return
	}
	g.bend = connector.BendFor(rt.From, rt.To, e.view.ToDesk(p))
	e.store.Overrides.SetBend(domain.ElementRef(g.id), g.bend)
}

func (e *Engine) finishBend(g *bending) {
	e.end()
	if !g.active {
		return
	}
	before, ok := e.store.Get(g.id)
	if !ok || before.Payload.Connector == nil || before.Payload.Connector.Bend == g.bend {
		return
	}
	payload := before.Payload.Clone()
	payload.Connector.Bend = g.bend
	patch := domain.ElementPatch{Payload: &payload}
	after, _ := e.store.Update(g.id, patch)
	e.persist.UpdateElement(g.id, patch)
	e.hist.RecordUpdate(before, after)
	e.router.Refit()
}
