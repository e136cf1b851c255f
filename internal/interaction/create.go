package interaction

import (
	"math"

	"board/internal/domain"
	"board/internal/geom"
	"board/internal/selection"
)

// ──── Marquee ────

// evaluateMarquee converts the screen rectangle with the current view, so the
// result stays correct while the view pans or zooms underneath it.
func (e *Engine) evaluateMarquee(g *marquee) {
	ids, ok := selection.Marquee(g.rect(), e.view.View(), e.store.All())
	if !ok {
		e.sel.Clear()
		return
	}
	e.sel.SetElements(ids...)
}

func (e *Engine) finishMarquee(g *marquee) {
	e.evaluateMarquee(g)
	e.end()
}

// marqueeRect returns the screen rectangle of a running marquee.
func (e *Engine) marqueeRect() (geom.Rect, bool) {
	if g, ok := e.current.(*marquee); ok {
		return g.rect(), true
	}
	return geom.Rect{}, false
}

// ──── Creation tools ────

// DefaultSize is the footprint of an element placed with a single click.
func DefaultSize(t domain.ElementType) geom.Size {
	switch t {
	case domain.ElementNote:
		return geom.Size{W: 200, H: 200}
	case domain.ElementText:
		return geom.Size{W: 240, H: 60}
	case domain.ElementFrame:
		return geom.Size{W: 480, H: 320}
	case domain.ElementDocument, domain.ElementLink:
		return geom.Size{W: 320, H: 200}
	}
	return geom.Size{W: 200, H: 120}
}

// BlockDefaultSize is the footprint of a material block placed with a click.
var BlockDefaultSize = geom.Size{W: 320, H: 240}

func toolElementType(t Tool) domain.ElementType {
	switch t {
	case ToolNote:
		return domain.ElementNote
	case ToolText:
		return domain.ElementText
	case ToolFrame:
		return domain.ElementFrame
	case ToolLink:
		return domain.ElementLink
	case ToolAttach:
		return domain.ElementDocument
	}
	return ""
}

func (e *Engine) startCreate(b base) {
	if (e.tool == ToolLink || e.tool == ToolAttach) && e.pendingEmbed == nil {
		return
	}
	_ = e.begin(&creating{base: b, tool: e.tool, current: b.origin})
}

func (e *Engine) createMove(g *creating, p geom.Point) {
	g.current = p
	if !g.active && g.pastThreshold(p, e.opts.DragThreshold) {
		g.active = true
	}
}

// createRect returns the desk rectangle a creation gesture would place: the
// dragged rectangle raised to the minimum size, or the default size centred
// on the click.
func (e *Engine) createRect(g *creating) geom.Rect {
	var def, min geom.Size
	if g.tool == ToolMaterialBlock {
		def, min = BlockDefaultSize, selection.BlockMinSize
	} else {
		t := toolElementType(g.tool)
		def, min = DefaultSize(t), selection.MinSize(t)
	}
	if !g.active {
		c := e.view.ToDesk(g.origin)
		return geom.Rect{X: c.X - def.W/2, Y: c.Y - def.H/2, W: def.W, H: def.H}
	}
	r := geom.RectFromPoints(e.view.ToDesk(g.origin), e.view.ToDesk(g.current))
	r.W = math.Max(r.W, min.W)
	r.H = math.Max(r.H, min.H)
	if g.tool == ToolNote {
		side := math.Max(r.W, r.H)
		r.W, r.H = side, side
	}
	return r
}

// finishCreate places the element or block and switches back to select.
// Notes and text open in edit mode.
func (e *Engine) finishCreate(g *creating) {
	e.createMove(g, g.current)
	r := e.createRect(g)
	e.end()
	e.tool = ToolSelect

	if g.tool == ToolMaterialBlock {
		e.createBlock(r)
		return
	}
	t := toolElementType(g.tool)
	el := domain.Element{Type: t, Payload: domain.DefaultPayload(t)}
	el.SetRect(r)
	if g.tool == ToolLink || g.tool == ToolAttach {
		if e.pendingEmbed == nil {
			return
		}
		embed := *e.pendingEmbed
		e.pendingEmbed = nil
		el.Payload.Embed = &embed
	}
	created, err := e.createElement(el)
	if err != nil {
		return
	}
	if t == domain.ElementNote || t == domain.ElementText {
		e.BeginEdit(created.ID)
	}
}

// createElement inserts el optimistically under a temp id, persists it and
// records history. Invalid elements are dropped silently.
func (e *Engine) createElement(el domain.Element) (domain.Element, error) {
	el.ID = domain.NewTempID()
	el.BoardID = e.boardID
	el.ZIndex = e.store.MaxZ() + 1
	if err := el.Validate(); err != nil {
		return domain.Element{}, err
	}
	e.store.Upsert(el)
	e.persist.CreateElement(el)
	e.hist.RecordCreate(el)
	e.store.ClearEditing()
	e.sel.SetElements(el.ID)
	return el, nil
}

func (e *Engine) createBlock(r geom.Rect) {
	b := domain.MaterialBlock{ID: domain.NewTempID(), BoardID: e.boardID, Title: "Untitled"}
	b.SetRect(r)
	e.store.UpsertBlock(b)
	e.persist.CreateBlock(b)
	e.sel.SelectBlock(b.ID)
}

// creationPreview returns the rectangle being dragged out by a creation tool.
func (e *Engine) creationPreview() (geom.Rect, bool) {
	g, ok := e.current.(*creating)
	if !ok || !g.active {
		return geom.Rect{}, false
	}
	return e.createRect(g), true
}
