package domain

import "board/internal/geom"

// Side names one edge of a rectangle.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Sides lists every side in a stable order.
var Sides = [4]Side{SideTop, SideRight, SideBottom, SideLeft}

func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// Normal returns the outward unit vector of the side.
func (s Side) Normal() geom.Point {
	switch s {
	case SideTop:
		return geom.Pt(0, -1)
	case SideRight:
		return geom.Pt(1, 0)
	case SideBottom:
		return geom.Pt(0, 1)
	case SideLeft:
		return geom.Pt(-1, 0)
	}
	return geom.Point{}
}

// RefKind distinguishes the two kinds of anchorable targets.
type RefKind string

const (
	RefElement RefKind = "element"
	RefBlock   RefKind = "block"
)

// Ref addresses either an element or a material block. Ids of the two kinds
// live in separate namespaces, so the kind is part of the identity.
type Ref struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

func ElementRef(id string) Ref { return Ref{Kind: RefElement, ID: id} }
func BlockRef(id string) Ref   { return Ref{Kind: RefBlock, ID: id} }

func (r Ref) IsZero() bool { return r.ID == "" }

func (r Ref) Valid() bool {
	return r.ID != "" && (r.Kind == RefElement || r.Kind == RefBlock)
}

// AnchorRef is one end of a connector: a target plus the side it attaches to.
type AnchorRef struct {
	Target Ref  `json:"target"`
	Side   Side `json:"side"`
}

func (a AnchorRef) Valid() bool { return a.Target.Valid() && a.Side.Valid() }
