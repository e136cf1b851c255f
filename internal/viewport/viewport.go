// Package viewport owns the pan offset and zoom scale of the canvas and
// converts between screen and desk coordinates.
package viewport

import (
	"math"
	"time"

	"board/internal/domain"
	"board/internal/geom"
	"board/internal/tick"
)

const (
	ReferenceScale = 1.0
	MinScale       = 0.2 * ReferenceScale
	MaxScale       = 3.0 * ReferenceScale

	// WheelSensitivity converts a wheel deltaY into an exponential zoom factor.
	WheelSensitivity = 0.0015
	// ZoomStep is the factor applied by one zoom button press.
	ZoomStep = 1.2
)

// ClampScale limits s to the supported zoom range.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) || s <= 0 {
		return ReferenceScale
	}
	return geom.Clamp(s, MinScale, MaxScale)
}

// Controller owns the view state of the loaded board. Like the element store
// it is driven from the engine thread only; the debounced save callback
// receives a copy of the state.
type Controller struct {
	view    domain.ViewState
	applied domain.ViewState
	size    geom.Size

	transform *tick.Coalescer[domain.ViewState]
	pan       *tick.Coalescer[geom.Point]
	panning   bool
	panStart  geom.Point
	panOrigin geom.Point

	pointers map[int]geom.Point
	pinch    *pinchState

	pendingLegacy *domain.ViewRecord

	key      string
	save     func(key string, v domain.ViewState)
	debounce *tick.Debouncer
}

type pinchState struct {
	a, b       int
	startDist  float64
	startScale float64
	anchor     geom.Point // desk point under the initial midpoint
}

// New creates a Controller. save persists a view state under the key that was
// current when the change happened; it is called from the debouncer's
// goroutine or synchronously from FlushSave. A zero saveDelay uses
// tick.DefaultQuietPeriod.
func New(sched tick.Scheduler, saveDelay time.Duration, save func(key string, v domain.ViewState)) *Controller {
	c := &Controller{
		view:     domain.ViewState{Scale: ReferenceScale},
		applied:  domain.ViewState{Scale: ReferenceScale},
		pointers: make(map[int]geom.Point),
		save:     save,
		debounce: tick.NewDebouncer(saveDelay),
	}
	c.transform = tick.NewCoalescer(sched, func(v domain.ViewState) { c.applied = v })
	c.pan = tick.NewCoalescer(sched, c.applyPan)
	return c
}

// View returns the logical view state used for coordinate conversion.
func (c *Controller) View() domain.ViewState { return c.view }

// Applied returns the transform most recently flushed to the renderer.
func (c *Controller) Applied() domain.ViewState { return c.applied }

func (c *Controller) Scale() float64 { return c.view.Scale }

// ScalePercent returns the zoom level relative to the reference scale.
func (c *Controller) ScalePercent() int {
	return int(math.Round(c.view.Scale / ReferenceScale * 100))
}

// Resize records the on-screen size of the canvas. A legacy record restored
// before the size was known is converted now.
func (c *Controller) Resize(w, h float64) {
	c.size = geom.Size{W: w, H: h}
	if c.pendingLegacy != nil && w > 0 && h > 0 {
		rec := c.pendingLegacy
		c.pendingLegacy = nil
		c.Restore(rec)
	}
}

func (c *Controller) Size() geom.Size { return c.size }

// SetKey names the record future saves belong to (the board id).
func (c *Controller) SetKey(key string) { c.key = key }

func (c *Controller) center() geom.Point {
	return geom.Pt(c.size.W/2, c.size.H/2)
}

func (c *Controller) ToDesk(screen geom.Point) geom.Point {
	return geom.ToDesk(screen, c.view.Offset, c.view.Scale)
}

func (c *Controller) ToScreen(desk geom.Point) geom.Point {
	return geom.ToScreen(desk, c.view.Offset, c.view.Scale)
}

// ScreenToDesk converts a screen-space length to desk units.
func (c *Controller) ScreenToDesk(d float64) float64 { return d / c.view.Scale }

// VisibleRect returns the desk-space rectangle currently on screen.
func (c *Controller) VisibleRect() geom.Rect {
	return geom.RectToDesk(geom.Rect{W: c.size.W, H: c.size.H}, c.view.Offset, c.view.Scale)
}

func (c *Controller) set(v domain.ViewState) {
	if v == c.view {
		return
	}
	c.view = v
	c.transform.Push(v)
	key := c.key
	c.debounce.Trigger(func() { c.save(key, v) })
}

// ──── Zoom ────

// ZoomBy multiplies the scale by factor, keeping the desk point under anchor
// (a screen point) fixed.
func (c *Controller) ZoomBy(factor float64, anchor geom.Point) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	c.zoomTo(c.view.Scale*factor, anchor)
}

func (c *Controller) zoomTo(scale float64, anchor geom.Point) {
	desk := c.ToDesk(anchor)
	s := ClampScale(scale)
	c.set(domain.ViewState{Offset: anchor.Sub(desk.Scale(s)), Scale: s})
}

// Wheel applies a continuous scroll zoom anchored at the cursor.
func (c *Controller) Wheel(screen geom.Point, deltaY float64) {
	c.ZoomBy(math.Exp(-deltaY*WheelSensitivity), screen)
}

// ZoomIn and ZoomOut are the discrete zoom buttons, anchored at the viewport center.
func (c *Controller) ZoomIn()  { c.ZoomBy(ZoomStep, c.center()) }
func (c *Controller) ZoomOut() { c.ZoomBy(1/ZoomStep, c.center()) }

// ResetZoom returns to the reference scale around the viewport center.
func (c *Controller) ResetZoom() { c.zoomTo(ReferenceScale, c.center()) }

// CenterOn pans so that desk point p sits at the viewport center.
func (c *Controller) CenterOn(p geom.Point) {
	c.set(domain.ViewState{Offset: c.center().Sub(p.Scale(c.view.Scale)), Scale: c.view.Scale})
}

// ──── Pan ────

// BeginPan starts a click-drag pan at screen point p.
func (c *Controller) BeginPan(p geom.Point) {
	c.panning = true
	c.panStart = p
	c.panOrigin = c.view.Offset
	c.pan.Discard()
}

// PanTo records the latest pointer position; the offset is updated at most
// once per frame.
func (c *Controller) PanTo(p geom.Point) {
	if !c.panning {
		return
	}
	c.pan.Push(p)
}

func (c *Controller) applyPan(p geom.Point) {
	if !c.panning {
		return
	}
	c.set(domain.ViewState{Offset: c.panOrigin.Add(p.Sub(c.panStart)), Scale: c.view.Scale})
}

// EndPan applies the last pointer position and saves immediately.
func (c *Controller) EndPan() {
	if !c.panning {
		return
	}
	c.pan.Flush()
	c.panning = false
	c.FlushSave()
}

// CancelPan drops a pending pan frame and keeps the offset reached so far.
func (c *Controller) CancelPan() {
	c.pan.Discard()
	c.panning = false
}

func (c *Controller) Panning() bool { return c.panning }

// PanBy shifts the offset by a screen delta (trackpad scroll).
func (c *Controller) PanBy(d geom.Point) {
	c.set(domain.ViewState{Offset: c.view.Offset.Add(d), Scale: c.view.Scale})
}

// ──── Pinch ────

// PointerDown tracks an active pointer. It reports true when this pointer
// makes exactly two active pointers and a pinch begins.
func (c *Controller) PointerDown(id int, p geom.Point) bool {
	c.pointers[id] = p
	if len(c.pointers) != 2 || c.pinch != nil {
		return false
	}
	var ids []int
	for pid := range c.pointers {
		ids = append(ids, pid)
	}
	a, b := c.pointers[ids[0]], c.pointers[ids[1]]
	d := a.Dist(b)
	if d == 0 {
		return false
	}
	c.CancelPan()
	c.pinch = &pinchState{
		a: ids[0], b: ids[1],
		startDist:  d,
		startScale: c.view.Scale,
		anchor:     c.ToDesk(a.Mid(b)),
	}
	return true
}

// PointerMove updates a tracked pointer and, while pinching, the view.
func (c *Controller) PointerMove(id int, p geom.Point) {
	if _, ok := c.pointers[id]; !ok {
		return
	}
	c.pointers[id] = p
	if c.pinch == nil {
		return
	}
	a, b := c.pointers[c.pinch.a], c.pointers[c.pinch.b]
	s := ClampScale(c.pinch.startScale * a.Dist(b) / c.pinch.startDist)
	mid := a.Mid(b)
	c.set(domain.ViewState{Offset: mid.Sub(c.pinch.anchor.Scale(s)), Scale: s})
}

// PointerUp stops tracking a pointer. It reports true when a pinch ended.
func (c *Controller) PointerUp(id int) bool {
	if _, ok := c.pointers[id]; !ok {
		return false
	}
	delete(c.pointers, id)
	if c.pinch != nil && (id == c.pinch.a || id == c.pinch.b) {
		c.pinch = nil
		c.FlushSave()
		return true
	}
	return false
}

func (c *Controller) Pinching() bool { return c.pinch != nil }

// ActivePointers returns how many pointers are down.
func (c *Controller) ActivePointers() int { return len(c.pointers) }

// ResetPointers forgets every tracked pointer, e.g. after capture is lost.
func (c *Controller) ResetPointers() {
	clear(c.pointers)
	if c.pinch != nil {
		c.pinch = nil
		c.FlushSave()
	}
}

// ──── Persistence ────

// Restore applies a persisted record without saving it back. A nil record
// resets to the default view. Legacy records store the desk point at the
// viewport center and a scale multiplier; their offset is derived against the
// current viewport center.
func (c *Controller) Restore(rec *domain.ViewRecord) {
	c.debounce.Cancel()
	c.pan.Discard()
	c.panning = false
	c.pendingLegacy = nil

	v := domain.ViewState{Scale: ReferenceScale}
	switch {
	case rec == nil:
	case rec.IsLegacy():
		if c.size.W == 0 || c.size.H == 0 {
			c.pendingLegacy = rec
		}
		v.Scale = ClampScale(rec.Scale * ReferenceScale)
		v.Offset = c.center().Sub(rec.Center.Scale(v.Scale))
	case rec.Offset != nil:
		v.Offset = *rec.Offset
		v.Scale = ClampScale(rec.Scale)
	}
	c.view = v
	c.applied = v
	c.transform.Discard()
}

// FlushSave persists the current state now if a save is pending.
func (c *Controller) FlushSave() {
	c.debounce.Flush()
}

// SavePending reports whether a debounced save is waiting.
func (c *Controller) SavePending() bool { return c.debounce.Pending() }

// Close drops any pending save without running it.
func (c *Controller) Close() { c.debounce.Cancel() }
