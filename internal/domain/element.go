package domain

import (
	"context"
	"time"

	"board/internal/geom"
)

type ElementType string

const (
	ElementNote      ElementType = "note"
	ElementText      ElementType = "text"
	ElementFrame     ElementType = "frame"
	ElementDocument  ElementType = "document"
	ElementLink      ElementType = "link"
	ElementDrawing   ElementType = "drawing"
	ElementConnector ElementType = "connector"
)

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	switch t {
	case ElementNote, ElementText, ElementFrame, ElementDocument,
		ElementLink, ElementDrawing, ElementConnector:
		return true
	}
	return false
}

// Element is a single item placed on a board. Geometry is in desk coordinates.
type Element struct {
	ID        string      `json:"id"`
	BoardID   string      `json:"boardId"`
	Type      ElementType `json:"type"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Rotation  float64     `json:"rotation"`
	ZIndex    int         `json:"zIndex"`
	Payload   Payload     `json:"payload"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Rect returns the element's axis-aligned bounds.
func (e Element) Rect() geom.Rect {
	return geom.Rect{X: e.X, Y: e.Y, W: e.Width, H: e.Height}
}

// SetRect replaces the element's position and size.
func (e *Element) SetRect(r geom.Rect) {
	e.X, e.Y, e.Width, e.Height = r.X, r.Y, r.W, r.H
}

// Clone returns a deep copy, so snapshots kept by history are never aliased
// with the live store.
func (e Element) Clone() Element {
	e.Payload = e.Payload.Clone()
	return e
}

// ContentEqual compares everything except identity and timestamps.
func (e Element) ContentEqual(o Element) bool {
	if e.Type != o.Type || e.X != o.X || e.Y != o.Y || e.Width != o.Width ||
		e.Height != o.Height || e.Rotation != o.Rotation || e.ZIndex != o.ZIndex {
		return false
	}
	return e.Payload.Equal(o.Payload)
}

// Validate checks the invariants every persisted element must satisfy.
func (e Element) Validate() error {
	if !e.Type.Valid() {
		return validationf("unknown element type %q", e.Type)
	}
	if e.Width < 0 || e.Height < 0 {
		return validationf("negative size %.1fx%.1f", e.Width, e.Height)
	}
	if err := e.Payload.validateFor(e.Type); err != nil {
		return err
	}
	return nil
}

// ElementPatch is a partial update. Nil fields are left untouched.
type ElementPatch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	ZIndex   *int     `json:"zIndex,omitempty"`
	Payload  *Payload `json:"payload,omitempty"`
}

// GeometryPatch builds a patch that moves/resizes to r.
func GeometryPatch(r geom.Rect) ElementPatch {
	return ElementPatch{X: &r.X, Y: &r.Y, Width: &r.W, Height: &r.H}
}

// PatchFrom builds a full patch carrying every mutable field of e.
func PatchFrom(e Element) ElementPatch {
	p := e.Payload.Clone()
	return ElementPatch{
		X: &e.X, Y: &e.Y, Width: &e.Width, Height: &e.Height,
		Rotation: &e.Rotation, ZIndex: &e.ZIndex, Payload: &p,
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p ElementPatch) IsEmpty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil &&
		p.Rotation == nil && p.ZIndex == nil && p.Payload == nil
}

// Apply merges the patch into e.
func (p ElementPatch) Apply(e *Element) {
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Width != nil {
		e.Width = *p.Width
	}
	if p.Height != nil {
		e.Height = *p.Height
	}
	if p.Rotation != nil {
		e.Rotation = *p.Rotation
	}
	if p.ZIndex != nil {
		e.ZIndex = *p.ZIndex
	}
	if p.Payload != nil {
		e.Payload = e.Payload.Merge(*p.Payload)
	}
}

// MergeElements overlays a later record b onto an earlier record a with the
// same id. b's geometry, rotation and z-index win even when zero. Payload
// arms, timestamps and the board id that b leaves unset keep a's values.
// Used when a load returns the same id twice.
func MergeElements(a, b Element) Element {
	out := b
	if out.ID == "" {
		out.ID = a.ID
	}
	if out.BoardID == "" {
		out.BoardID = a.BoardID
	}
	// Type is required; an empty one was never written.
	if out.Type == "" {
		out.Type = a.Type
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = a.CreatedAt
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = a.UpdatedAt
	}
	out.Payload = a.Payload.Merge(b.Payload)
	return out
}

// ElementStore is the persistence boundary for board elements.
type ElementStore interface {
	ListElements(ctx context.Context, boardID string) ([]Element, error)
	CreateElement(ctx context.Context, e *Element) error
	UpdateElement(ctx context.Context, id string, patch ElementPatch) (*Element, error)
	DeleteElement(ctx context.Context, id string) error
}
