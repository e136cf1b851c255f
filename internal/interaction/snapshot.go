package interaction

import (
	"board/internal/connector"
	"board/internal/domain"
	"board/internal/geom"
)

// Frame is everything the front end needs to draw one render tick.
type Frame struct {
	Version       uint64                 `json:"version"`
	BoardID       string                 `json:"boardId"`
	View          domain.ViewState       `json:"view"`
	ZoomPercent   int                    `json:"zoomPercent"`
	Tool          Tool                   `json:"tool"`
	Gesture       Kind                   `json:"gesture"`
	Elements      []domain.Element       `json:"elements"`
	Blocks        []domain.MaterialBlock `json:"blocks"`
	Connectors    []connector.Route      `json:"connectors"`
	Selection     []string               `json:"selection"`
	SelectedBlock string                 `json:"selectedBlock,omitempty"`
	Editing       string                 `json:"editing,omitempty"`
	Marquee       *geom.Rect             `json:"marquee,omitempty"`
	Draft         *geom.Cubic            `json:"draft,omitempty"`
	DraftTarget   *connector.Hover       `json:"draftTarget,omitempty"`
	PenPreview    []geom.Point           `json:"penPreview,omitempty"`
	CreateRect    *geom.Rect             `json:"createRect,omitempty"`
	CanUndo       bool                   `json:"canUndo"`
	CanRedo       bool                   `json:"canRedo"`
	PendingEmbed  bool                   `json:"pendingEmbed"`
}

// Snapshot renders the current state with visual overrides applied.
func (e *Engine) Snapshot() Frame {
	f := Frame{
		Version:     e.store.Version(),
		BoardID:     e.boardID,
		View:        e.view.Applied(),
		ZoomPercent: e.view.ScalePercent(),
		Tool:        e.tool,
		Gesture:     e.Current(),
		Selection:   e.sel.Elements(),
		Connectors:  e.router.Routes(),
		CanUndo:     e.hist.CanUndo(),
		CanRedo:     e.hist.CanRedo(),
		PenPreview:  e.penPreview(),
	}
	f.PendingEmbed = e.pendingEmbed != nil
	f.SelectedBlock, _ = e.sel.Block()
	f.Editing, _ = e.store.Editing()

	ov := e.store.Overrides
	f.Elements = e.store.All()
	for i := range f.Elements {
		el := &f.Elements[i]
		if r, ok := ov.Rect(domain.ElementRef(el.ID)); ok {
			el.SetRect(r)
		}
		if b, ok := ov.Bend(domain.ElementRef(el.ID)); ok && el.Payload.Connector != nil {
			el.Payload.Connector.Bend = b
		}
	}
	f.Blocks = e.store.Blocks()
	for i := range f.Blocks {
		if r, ok := ov.Rect(domain.BlockRef(f.Blocks[i].ID)); ok {
			f.Blocks[i].SetRect(r)
		}
	}

	if r, ok := e.marqueeRect(); ok {
		f.Marquee = &r
	}
	if g, ok := e.current.(*connecting); ok {
		if c, ok := e.draft(g); ok {
			f.Draft = &c
		}
		if g.hasHov && g.hover.Armed {
			h := g.hover
			f.DraftTarget = &h
		}
	}
	if r, ok := e.creationPreview(); ok {
		f.CreateRect = &r
	}
	return f
}
