package mcpserver

import (
	"math"

	"board/internal/geom"
)

const (
	GridSize = 20.0
	Padding  = 40.0 // 2 grid cells between elements
	MaxRowW  = 1800.0
)

// LayoutEngine handles automatic placement of agent-created elements so they
// don't overlap what is already on the board.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// NextPosition finds the first free grid position for a rectangle of size
// (w, h), scanning rows top-to-bottom from origin.
func (le *LayoutEngine) NextPosition(occupied []geom.Rect, origin geom.Point, w, h float64) geom.Point {
	ox, oy := le.snap(origin.X), le.snap(origin.Y)
	if len(occupied) == 0 {
		return geom.Pt(ox, oy)
	}

	padded := make([]geom.Rect, len(occupied))
	for i, r := range occupied {
		padded[i] = r.Expand(le.padding)
	}

	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x < le.maxRowW; x += le.gridSize {
			candidate := geom.Rect{X: ox + x, Y: oy + y, W: w, H: h}
			free := true
			for _, p := range padded {
				if candidate.Overlaps(p) {
					free = false
					break
				}
			}
			if free {
				return candidate.Min()
			}
		}
	}

	// Fallback: below everything
	maxY := oy
	for _, r := range occupied {
		maxY = math.Max(maxY, r.Y+r.H)
	}
	return geom.Pt(ox, le.snap(maxY+le.padding))
}

// ArrangeGroup lays rects out in rows starting at start, wrapping at the
// maximum row width. It returns the new rects in input order.
func (le *LayoutEngine) ArrangeGroup(rects []geom.Rect, start geom.Point) []geom.Rect {
	x0 := le.snap(start.X)
	x, y := x0, le.snap(start.Y)
	rowHeight := 0.0

	out := make([]geom.Rect, len(rects))
	for i, r := range rects {
		if x > x0 && x-x0+r.W > le.maxRowW {
			x = x0
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		out[i] = geom.Rect{X: x, Y: y, W: r.W, H: r.H}
		rowHeight = math.Max(rowHeight, r.H)
		x += le.snap(r.W + le.padding)
	}
	return out
}
