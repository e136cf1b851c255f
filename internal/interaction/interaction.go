package interaction

import (
	"errors"
	"time"

	"board/internal/connector"
	"board/internal/domain"
	"board/internal/geom"
	"board/internal/selection"
)

// ErrGestureBusy is returned by begin when another gesture already owns the
// pointer and the transition is not a pinch promotion.
var ErrGestureBusy = errors.New("another gesture is in progress")

// Kind names the gesture currently in progress.
type Kind string

const (
	KindNone        Kind = "none"
	KindDrag        Kind = "drag"
	KindResize      Kind = "resize"
	KindConnect     Kind = "connector-drag"
	KindBend        Kind = "bend"
	KindMarquee     Kind = "marquee"
	KindPan         Kind = "pan"
	KindPinch       Kind = "pinch"
	KindDraw        Kind = "draw"
	KindErase       Kind = "erase"
	KindBlockDrag   Kind = "block-drag"
	KindBlockResize Kind = "block-resize"
	KindCreate      Kind = "create"
)

// Interaction is the gesture owned by the engine. Exactly one is active at a
// time; the concrete types below are its variants.
type Interaction interface {
	Kind() Kind
	// Pointer is the id of the pointer that owns the gesture.
	Pointer() int
}

type base struct {
	pointer int
	origin  geom.Point // screen
}

func (b *base) Pointer() int { return b.pointer }

// pastThreshold reports whether p has moved far enough from the origin to
// turn a press into a drag.
func (b *base) pastThreshold(p geom.Point, threshold float64) bool {
	return p.Dist(b.origin) > threshold
}

type dragging struct {
	base
	ids    []string
	starts map[string]geom.Rect
	active bool
	// clicked is the element pressed on; a click without drag selects only it.
	clicked string
}

func (*dragging) Kind() Kind { return KindDrag }

type resizing struct {
	base
	id     string
	handle selection.Handle
	start  geom.Rect
	min    geom.Size
	lock   bool
	active bool
}

func (*resizing) Kind() Kind { return KindResize }

type connecting struct {
	base
	from   domain.AnchorRef
	cursor geom.Point // desk
	hover  connector.Hover
	hasHov bool
}

func (*connecting) Kind() Kind { return KindConnect }

type bending struct {
	base
	id     string
	active bool
	bend   geom.Point
}

func (*bending) Kind() Kind { return KindBend }

type marquee struct {
	base
	current geom.Point // screen
}

func (*marquee) Kind() Kind { return KindMarquee }

func (m *marquee) rect() geom.Rect { return geom.RectFromPoints(m.origin, m.current) }

type panning struct{ base }

func (*panning) Kind() Kind { return KindPan }

type pinching struct{ base }

func (*pinching) Kind() Kind { return KindPinch }

type drawing struct {
	base
	points []geom.Point // desk
	last   geom.Point   // screen position of the last sample
	color  string
	width  float64
}

func (*drawing) Kind() Kind { return KindDraw }

type erasing struct {
	base
	lastSample time.Time
	erased     map[string]bool
}

func (*erasing) Kind() Kind { return KindErase }

type blockDragging struct {
	base
	id     string
	start  geom.Rect
	active bool
}

func (*blockDragging) Kind() Kind { return KindBlockDrag }

type blockResizing struct {
	base
	id     string
	handle selection.Handle
	start  geom.Rect
	active bool
}

func (*blockResizing) Kind() Kind { return KindBlockResize }

type creating struct {
	base
	tool    Tool
	current geom.Point // screen
	active  bool
}

func (*creating) Kind() Kind { return KindCreate }

// promotable reports whether cur may be abandoned in favour of a pinch.
func promotable(cur Interaction) bool {
	switch cur.(type) {
	case *panning, *drawing:
		return true
	}
	return false
}
