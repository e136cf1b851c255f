// Package connector computes connector anchors and curves between elements
// and material blocks.
package connector

import (
	"math"

	"board/internal/domain"
	"board/internal/geom"
)

const (
	// Outset pushes anchors off the target's edge so arrows stay visible.
	Outset = 10.0

	ControlRatio = 0.35
	MinControl   = 40.0
	MaxControl   = 240.0

	// BendWeight is the share of the bend vector added to each control point.
	BendWeight = 0.5

	// midWeight is the Bernstein weight of each control point at t=0.5.
	midWeight = 0.375
)

// Anchor is a connector endpoint: a point outside one side of a target and
// the outward direction of that side.
type Anchor struct {
	Point geom.Point  `json:"point"`
	Dir   geom.Point  `json:"dir"`
	Side  domain.Side `json:"side"`
}

// AnchorFor returns the anchor on side of r.
func AnchorFor(r geom.Rect, side domain.Side) Anchor {
	var mid geom.Point
	switch side {
	case domain.SideTop:
		mid = geom.Pt(r.X+r.W/2, r.Y)
	case domain.SideRight:
		mid = geom.Pt(r.X+r.W, r.Y+r.H/2)
	case domain.SideBottom:
		mid = geom.Pt(r.X+r.W/2, r.Y+r.H)
	case domain.SideLeft:
		mid = geom.Pt(r.X, r.Y+r.H/2)
	default:
		return Anchor{Point: r.Center()}
	}
	n := side.Normal()
	return Anchor{Point: mid.Add(n.Scale(Outset)), Dir: n, Side: side}
}

// Anchors returns the four anchors of r in domain.Sides order.
func Anchors(r geom.Rect) [4]Anchor {
	var out [4]Anchor
	for i, s := range domain.Sides {
		out[i] = AnchorFor(r, s)
	}
	return out
}

// HitAnchor returns the side whose anchor lies within radius of p.
func HitAnchor(r geom.Rect, p geom.Point, radius float64) (domain.Side, bool) {
	best, bestD := domain.Side(""), radius*radius
	for _, a := range Anchors(r) {
		if d := a.Point.DistSq(p); d <= bestD {
			best, bestD = a.Side, d
		}
	}
	return best, best != ""
}

// ControlDistance is how far each control point sits from its anchor.
func ControlDistance(a, b geom.Point) float64 {
	return geom.Clamp(ControlRatio*a.Dist(b), MinControl, MaxControl)
}

// Path returns the cubic curve from a to b bowed by bend.
func Path(a, b Anchor, bend geom.Point) geom.Cubic {
	k := ControlDistance(a.Point, b.Point)
	shift := bend.Scale(BendWeight)
	return geom.Cubic{
		P0: a.Point,
		P1: a.Point.Add(a.Dir.Scale(k)).Add(shift),
		P2: b.Point.Add(b.Dir.Scale(k)).Add(shift),
		P3: b.Point,
	}
}

// Midpoint is the point at t=0.5, where the bend handle is drawn.
func Midpoint(c geom.Cubic) geom.Point { return c.At(0.5) }

// BendFor returns the bend vector that moves the curve's midpoint to desired.
func BendFor(a, b Anchor, desired geom.Point) geom.Point {
	natural := Midpoint(Path(a, b, geom.Point{}))
	// Each control point carries BendWeight of the bend and both have weight
	// midWeight at t=0.5.
	return desired.Sub(natural).Scale(1 / (2 * midWeight * BendWeight))
}

// DraftEnd returns a free-floating end anchor at cursor, facing back toward
// from along whichever axis has the larger displacement.
func DraftEnd(from Anchor, cursor geom.Point) Anchor {
	d := cursor.Sub(from.Point)
	var dir geom.Point
	var side domain.Side
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X >= 0 {
			dir, side = geom.Pt(-1, 0), domain.SideLeft
		} else {
			dir, side = geom.Pt(1, 0), domain.SideRight
		}
	} else {
		if d.Y >= 0 {
			dir, side = geom.Pt(0, -1), domain.SideTop
		} else {
			dir, side = geom.Pt(0, 1), domain.SideBottom
		}
	}
	return Anchor{Point: cursor, Dir: dir, Side: side}
}

// CurveDistSq approximates the squared distance from p to the curve.
func CurveDistSq(c geom.Cubic, p geom.Point) float64 {
	const steps = 24
	best := math.Inf(1)
	prev := c.P0
	for i := 1; i <= steps; i++ {
		next := c.At(float64(i) / steps)
		if d := geom.SegmentDistSq(p, prev, next); d < best {
			best = d
		}
		prev = next
	}
	return best
}

// FacingSides returns the sides of a and b that face each other along the
// axis with the larger center displacement.
func FacingSides(a, b geom.Rect) (domain.Side, domain.Side) {
	d := b.Center().Sub(a.Center())
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X >= 0 {
			return domain.SideRight, domain.SideLeft
		}
		return domain.SideLeft, domain.SideRight
	}
	if d.Y >= 0 {
		return domain.SideBottom, domain.SideTop
	}
	return domain.SideTop, domain.SideBottom
}
