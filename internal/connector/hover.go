package connector

import (
	"board/internal/domain"
	"board/internal/geom"
)

// Target is an element or block a connector may attach to.
type Target struct {
	Ref    domain.Ref
	Rect   geom.Rect
	ZIndex int
}

// Hover is the result of a drop-target test during connector creation.
type Hover struct {
	Target Target
	Side   domain.Side
	// Armed is set only when an anchor of the target is within the arming radius.
	Armed bool
}

// FindHover picks the nearest target whose bounds, grown by tolerance, contain
// p and arms the side whose anchor is within radius. exclude is skipped. All
// distances are in desk units.
func FindHover(targets []Target, p geom.Point, tolerance, radius float64, exclude domain.Ref) (Hover, bool) {
	var best *Target
	bestD := 0.0
	for i := range targets {
		t := &targets[i]
		if t.Ref == exclude || !t.Rect.Expand(tolerance).Contains(p) {
			continue
		}
		d := t.Rect.DistTo(p)
		if best == nil || d < bestD || (d == bestD && t.ZIndex > best.ZIndex) {
			best, bestD = t, d
		}
	}
	if best == nil {
		return Hover{}, false
	}
	h := Hover{Target: *best}
	if side, ok := HitAnchor(best.Rect, p, radius); ok {
		h.Side, h.Armed = side, true
	}
	return h, true
}

// Eligible reports whether an element type can be a connector endpoint.
func Eligible(t domain.ElementType) bool {
	return t != domain.ElementConnector && t != domain.ElementDrawing
}
