// Package interaction is the canvas engine: it owns the element store, the
// viewport, selection and history, and turns pointer input into gestures.
package interaction

import (
	"time"

	"board/internal/connector"
	"board/internal/domain"
	"board/internal/elements"
	"board/internal/geom"
	"board/internal/history"
	"board/internal/selection"
	"board/internal/tick"
	"board/internal/viewport"
)

// Tool is the active canvas tool.
type Tool string

const (
	ToolSelect        Tool = "select"
	ToolHand          Tool = "hand"
	ToolPen           Tool = "pen"
	ToolEraser        Tool = "eraser"
	ToolFrame         Tool = "frame"
	ToolNote          Tool = "note"
	ToolText          Tool = "text"
	ToolConnector     Tool = "connector"
	ToolMaterialBlock Tool = "material_block"
	ToolLink          Tool = "link"
	ToolAttach        Tool = "attach"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	switch t {
	case ToolSelect, ToolHand, ToolPen, ToolEraser, ToolFrame, ToolNote, ToolText,
		ToolConnector, ToolMaterialBlock, ToolLink, ToolAttach:
		return true
	}
	return false
}

// creates reports whether the tool places a new element or block.
func (t Tool) creates() bool {
	switch t {
	case ToolFrame, ToolNote, ToolText, ToolMaterialBlock, ToolLink, ToolAttach:
		return true
	}
	return false
}

// Persistence issues asynchronous, fire-and-forget storage calls. Results
// come back to the engine through MergeElement, MergeBlock and Rekey.
type Persistence interface {
	CreateElement(e domain.Element)
	UpdateElement(id string, patch domain.ElementPatch)
	DeleteElement(id string)
	CreateBlock(b domain.MaterialBlock)
	UpdateBlock(id string, patch domain.BlockPatch)
	DeleteBlock(id string)
}

// Notifier surfaces transient, auto-dismissing messages.
type Notifier interface {
	Notify(err error)
}

// Options tunes gesture thresholds. Screen distances are in pixels.
type Options struct {
	DragThreshold  float64
	PenMinDistance float64
	EraseRadius    float64
	EraseInterval  time.Duration
	HandleRadius   float64
	HoverTolerance float64
	AnchorRadius   float64
	HitTolerance   float64
	PenColor       string
	PenWidth       float64
	HistoryDepth   int
	ViewSaveDelay  time.Duration

	// Now is the clock used for eraser sampling.
	Now func() time.Time
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		DragThreshold:  10,
		PenMinDistance: 0.9,
		EraseRadius:    12,
		EraseInterval:  28 * time.Millisecond,
		HandleRadius:   8,
		HoverTolerance: 16,
		AnchorRadius:   14,
		HitTolerance:   6,
		PenColor:       "#111827",
		PenWidth:       2,
		HistoryDepth:   history.DefaultDepth,
		ViewSaveDelay:  tick.DefaultQuietPeriod,
		Now:            time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DragThreshold <= 0 {
		o.DragThreshold = d.DragThreshold
	}
	if o.PenMinDistance <= 0 {
		o.PenMinDistance = d.PenMinDistance
	}
	if o.EraseRadius <= 0 {
		o.EraseRadius = d.EraseRadius
	}
	if o.EraseInterval <= 0 {
		o.EraseInterval = d.EraseInterval
	}
	if o.HandleRadius <= 0 {
		o.HandleRadius = d.HandleRadius
	}
	if o.HoverTolerance <= 0 {
		o.HoverTolerance = d.HoverTolerance
	}
	if o.AnchorRadius <= 0 {
		o.AnchorRadius = d.AnchorRadius
	}
	if o.HitTolerance <= 0 {
		o.HitTolerance = d.HitTolerance
	}
	if o.PenColor == "" {
		o.PenColor = d.PenColor
	}
	if o.PenWidth <= 0 {
		o.PenWidth = d.PenWidth
	}
	if o.HistoryDepth <= 0 {
		o.HistoryDepth = d.HistoryDepth
	}
	if o.ViewSaveDelay <= 0 {
		o.ViewSaveDelay = d.ViewSaveDelay
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// Deps are the collaborators an Engine drives.
type Deps struct {
	Scheduler   tick.Scheduler
	Persistence Persistence
	Notifier    Notifier
	// SaveView persists the viewport; called off the engine thread.
	SaveView func(boardID string, v domain.ViewState)
}

// PointerEvent is a pointer sample in screen coordinates.
type PointerEvent struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Touch bool    `json:"touch"`
	Shift bool    `json:"shift"`
}

func (ev PointerEvent) Point() geom.Point { return geom.Pt(ev.X, ev.Y) }

// Engine is the single-threaded canvas controller. Every method must be
// called from the same goroutine (the host serialises calls).
type Engine struct {
	opts    Options
	boardID string

	store  *elements.Store
	view   *viewport.Controller
	router *connector.Router
	hist   *history.Manager
	sel    *selection.State

	persist Persistence
	notify  Notifier

	tool         Tool
	current      Interaction
	moves        *tick.Coalescer[geom.Point]
	pendingEmbed *domain.EmbedPayload
}

// New creates an Engine with an empty board.
func New(deps Deps, opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:    opts,
		store:   elements.NewStore(),
		sel:     selection.New(),
		persist: deps.Persistence,
		notify:  deps.Notifier,
		tool:    ToolSelect,
	}
	e.router = connector.NewRouter(e.store)
	e.hist = history.New(opts.HistoryDepth, historyApplier{e})
	e.moves = tick.NewCoalescer(deps.Scheduler, e.applyMove)
	save := deps.SaveView
	e.view = viewport.New(deps.Scheduler, opts.ViewSaveDelay, func(boardID string, v domain.ViewState) {
		if save != nil && boardID != "" {
			save(boardID, v)
		}
	})
	return e
}

func (e *Engine) Store() *elements.Store        { return e.store }
func (e *Engine) Viewport() *viewport.Controller { return e.view }
func (e *Engine) Router() *connector.Router      { return e.router }
func (e *Engine) History() *history.Manager      { return e.hist }
func (e *Engine) Selection() *selection.State    { return e.sel }
func (e *Engine) BoardID() string                { return e.boardID }
func (e *Engine) Tool() Tool                     { return e.tool }

// Current returns the gesture in progress, or KindNone.
func (e *Engine) Current() Kind {
	if e.current == nil {
		return KindNone
	}
	return e.current.Kind()
}

// ──── Board lifecycle ────

// Load replaces everything with a freshly loaded board.
func (e *Engine) Load(state domain.BoardState) {
	e.view.FlushSave()
	e.cancelGesture()
	e.boardID = state.Board.ID
	e.view.SetKey(e.boardID)
	e.store.Load(state.Elements)
	e.store.LoadBlocks(state.Blocks)
	e.store.ClearEditing()
	e.sel.Clear()
	e.hist.Clear()
	e.view.Restore(state.View)
	e.router.Refit()
}

// Reload swaps in a fresh server listing for the current board, keeping
// optimistic records whose create has not resolved yet.
func (e *Engine) Reload(els []domain.Element, blocks []domain.MaterialBlock) {
	for _, el := range e.store.All() {
		if domain.IsTempID(el.ID) {
			els = append(els, el)
		}
	}
	for _, b := range e.store.Blocks() {
		if domain.IsTempID(b.ID) {
			blocks = append(blocks, b)
		}
	}
	editing, _ := e.store.Editing()
	e.store.Load(els)
	e.store.LoadBlocks(blocks)
	e.store.SetEditing(editing)
	for _, id := range e.sel.Elements() {
		if !e.store.Has(id) {
			e.sel.RemoveElement(id)
		}
	}
	if id, ok := e.sel.Block(); ok {
		if _, found := e.store.Block(id); !found {
			e.sel.Clear()
		}
	}
	e.router.Refit()
}

// Resize tells the engine the on-screen canvas size.
func (e *Engine) Resize(w, h float64) { e.view.Resize(w, h) }

// Close flushes the pending view save.
func (e *Engine) Close() {
	e.view.FlushSave()
	e.view.Close()
}

// ──── Tools ────

// SetTool switches tools, abandoning any gesture without committing it.
func (e *Engine) SetTool(t Tool) {
	if !t.Valid() {
		return
	}
	e.cancelGesture()
	e.tool = t
}

// SetPendingEmbed supplies the URL consumed by the next link/attach placement.
func (e *Engine) SetPendingEmbed(p domain.EmbedPayload) {
	e.pendingEmbed = &p
}

// PendingEmbed returns the embed waiting to be placed, if any.
func (e *Engine) PendingEmbed() (domain.EmbedPayload, bool) {
	if e.pendingEmbed == nil {
		return domain.EmbedPayload{}, false
	}
	return *e.pendingEmbed, true
}

// ──── State machine ────

// begin makes next the current gesture. A pan or draw in progress is
// abandoned in favour of a pinch; any other overlap is rejected.
func (e *Engine) begin(next Interaction) error {
	if e.current != nil {
		if _, pinch := next.(*pinching); !pinch || !promotable(e.current) {
			return ErrGestureBusy
		}
		e.abandon()
	}
	e.current = next
	return nil
}

// end clears the current gesture after it committed.
func (e *Engine) end() {
	e.moves.Discard()
	e.current = nil
	e.store.Overrides.Clear()
	e.router.FollowDrag = false
}

// abandon drops the current gesture and its visual state. Nothing is persisted.
func (e *Engine) abandon() {
	if _, ok := e.current.(*panning); ok {
		e.view.CancelPan()
	}
	e.end()
}

func (e *Engine) cancelGesture() {
	if e.current == nil {
		return
	}
	if _, ok := e.current.(*pinching); ok {
		e.view.ResetPointers()
	}
	e.abandon()
}

// ──── Pointer dispatch ────

// PointerDown starts a gesture for the active tool.
func (e *Engine) PointerDown(ev PointerEvent) {
	p := ev.Point()
	if ev.Touch && (e.current == nil || promotable(e.current)) {
		if e.view.PointerDown(ev.ID, p) {
			_ = e.begin(&pinching{base{pointer: ev.ID, origin: p}})
			return
		}
	}
	if e.current != nil {
		return
	}

	b := base{pointer: ev.ID, origin: p}
	switch e.tool {
	case ToolHand:
		e.startPan(b)
	case ToolPen:
		e.startDraw(b)
	case ToolEraser:
		e.startErase(b)
	case ToolConnector:
		e.startConnectorTool(b)
	case ToolSelect:
		e.selectDown(b, ev)
	default:
		if e.tool.creates() {
			e.startCreate(b)
		}
	}
}

// PointerMove feeds the current gesture. Gestures that only need the latest
// position are coalesced to one update per frame; pen and eraser see every
// sample.
func (e *Engine) PointerMove(ev PointerEvent) {
	p := ev.Point()
	if ev.Touch {
		e.view.PointerMove(ev.ID, p)
	}
	if e.current == nil || e.current.Pointer() != ev.ID {
		return
	}
	switch g := e.current.(type) {
	case *pinching:
	case *panning:
		e.view.PanTo(p)
	case *drawing:
		e.drawMove(g, p)
	case *erasing:
		e.eraseMove(g, p)
	default:
		e.moves.Push(p)
	}
}

// PointerUp commits the current gesture.
func (e *Engine) PointerUp(ev PointerEvent) {
	p := ev.Point()
	if ev.Touch && e.view.PointerUp(ev.ID) {
		if _, ok := e.current.(*pinching); ok {
			e.end()
		}
		return
	}
	if e.current == nil || e.current.Pointer() != ev.ID {
		return
	}
	// Apply the latest coalesced position before committing.
	if e.moves.HasPending() {
		e.moves.Flush()
	}
	switch g := e.current.(type) {
	case *panning:
		e.view.EndPan()
		e.end()
	case *pinching:
		e.end()
	case *dragging:
		e.dragMove(g, p)
		e.finishDrag(g)
	case *resizing:
		e.resizeMove(g, p)
		e.finishResize(g)
	case *blockDragging:
		e.blockDragMove(g, p)
		e.finishBlockDrag(g)
	case *blockResizing:
		e.blockResizeMove(g, p)
		e.finishBlockResize(g)
	case *bending:
		e.bendMove(g, p)
		e.finishBend(g)
	case *connecting:
		e.connectMove(g, p)
		e.finishConnect(g)
	case *marquee:
		g.current = p
		e.finishMarquee(g)
	case *drawing:
		e.drawMove(g, p)
		e.finishDraw(g)
	case *erasing:
		e.eraseMove(g, p)
		e.end()
	case *creating:
		g.current = p
		e.finishCreate(g)
	}
}

// PointerCancel abandons the gesture owned by the pointer.
func (e *Engine) PointerCancel(ev PointerEvent) {
	if ev.Touch {
		e.view.PointerUp(ev.ID)
	}
	if e.current != nil && e.current.Pointer() == ev.ID {
		e.abandon()
	}
}

// LostCapture is called when the host loses pointer capture. The gesture is
// abandoned without a persistence call.
func (e *Engine) LostCapture() {
	e.view.ResetPointers()
	if e.current != nil {
		e.abandon()
	}
}

// Cancel abandons the gesture in progress; with none, it leaves edit mode
// and clears the selection.
func (e *Engine) Cancel() {
	if e.current != nil {
		e.cancelGesture()
		return
	}
	e.store.ClearEditing()
	e.sel.Clear()
}

// Wheel zooms around the cursor. A running marquee is re-evaluated against
// the new view.
func (e *Engine) Wheel(ev PointerEvent, deltaY float64) {
	e.view.Wheel(ev.Point(), deltaY)
	if m, ok := e.current.(*marquee); ok {
		e.moves.Push(m.current)
	}
}

// ZoomIn, ZoomOut and ResetZoom are the discrete zoom controls.
func (e *Engine) ZoomIn() {
	e.view.ZoomIn()
	e.view.FlushSave()
}

func (e *Engine) ZoomOut() {
	e.view.ZoomOut()
	e.view.FlushSave()
}

func (e *Engine) ResetZoom() {
	e.view.ResetZoom()
	e.view.FlushSave()
}

// applyMove runs once per frame with the latest pointer position.
func (e *Engine) applyMove(p geom.Point) {
	switch g := e.current.(type) {
	case *dragging:
		e.dragMove(g, p)
	case *resizing:
		e.resizeMove(g, p)
	case *blockDragging:
		e.blockDragMove(g, p)
	case *blockResizing:
		e.blockResizeMove(g, p)
	case *bending:
		e.bendMove(g, p)
	case *connecting:
		e.connectMove(g, p)
	case *marquee:
		g.current = p
		e.evaluateMarquee(g)
	case *creating:
		e.createMove(g, p)
	}
}

// deskDelta converts a screen displacement from origin to desk units.
func (e *Engine) deskDelta(origin, p geom.Point) geom.Point {
	return p.Sub(origin).Scale(1 / e.view.Scale())
}

// deskLen converts a screen length to desk units at the current zoom.
func (e *Engine) deskLen(px float64) float64 { return e.view.ScreenToDesk(px) }
