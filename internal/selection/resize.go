package selection

import (
	"math"

	"board/internal/domain"
	"board/internal/geom"
)

// Handle names one of the eight resize handles.
type Handle string

const (
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
	HandleNW Handle = "nw"
)

// Handles lists corners first so they win over edges when both are in range.
var Handles = [8]Handle{HandleNW, HandleNE, HandleSE, HandleSW, HandleN, HandleE, HandleS, HandleW}

func (h Handle) west() bool  { return h == HandleW || h == HandleNW || h == HandleSW }
func (h Handle) east() bool  { return h == HandleE || h == HandleNE || h == HandleSE }
func (h Handle) north() bool { return h == HandleN || h == HandleNE || h == HandleNW }
func (h Handle) south() bool { return h == HandleS || h == HandleSE || h == HandleSW }

// Point returns the position of handle h on r.
func (h Handle) Point(r geom.Rect) geom.Point {
	x, y := r.X+r.W/2, r.Y+r.H/2
	if h.west() {
		x = r.X
	} else if h.east() {
		x = r.X + r.W
	}
	if h.north() {
		y = r.Y
	} else if h.south() {
		y = r.Y + r.H
	}
	return geom.Pt(x, y)
}

// HandleAt returns the handle of r within radius of p.
func HandleAt(r geom.Rect, p geom.Point, radius float64) (Handle, bool) {
	for _, h := range Handles {
		if h.Point(r).DistSq(p) <= radius*radius {
			return h, true
		}
	}
	return "", false
}

// BlockMinSize is the smallest a material block may be resized to.
var BlockMinSize = geom.Size{W: 200, H: 120}

// MinSize returns the resize floor for an element type.
func MinSize(t domain.ElementType) geom.Size {
	switch t {
	case domain.ElementFrame:
		return geom.Size{W: 40, H: 40}
	case domain.ElementText:
		return geom.Size{W: 80, H: 40}
	}
	return geom.Size{W: 120, H: 80}
}

// LocksAspect reports whether resizing keeps the element's aspect ratio.
func LocksAspect(t domain.ElementType) bool { return t == domain.ElementNote }

// Resize applies a desk-space pointer delta d on handle h to start. West and
// north handles move the origin so the opposite edge stays fixed. With lock
// the start aspect ratio is preserved and the axis with the larger relative
// displacement drives the size.
func Resize(start geom.Rect, h Handle, d geom.Point, min geom.Size, lock bool) geom.Rect {
	w, hgt := start.W, start.H
	switch {
	case h.east():
		w += d.X
	case h.west():
		w -= d.X
	}
	switch {
	case h.south():
		hgt += d.Y
	case h.north():
		hgt -= d.Y
	}

	if lock && start.W > 0 && start.H > 0 {
		w, hgt = lockRatio(start, h, w, hgt, min)
	} else {
		w = math.Max(w, min.W)
		hgt = math.Max(hgt, min.H)
	}

	out := geom.Rect{X: start.X, Y: start.Y, W: w, H: hgt}
	if h.west() {
		out.X = start.X + start.W - w
	}
	if h.north() {
		out.Y = start.Y + start.H - hgt
	}
	return out
}

func lockRatio(start geom.Rect, h Handle, w, hgt float64, min geom.Size) (float64, float64) {
	ratio := start.W / start.H
	horizontal := h.east() || h.west()
	vertical := h.north() || h.south()

	widthDrives := horizontal
	if horizontal && vertical {
		widthDrives = math.Abs(w-start.W)/start.W >= math.Abs(hgt-start.H)/start.H
	}
	if widthDrives {
		hgt = w / ratio
	} else {
		w = hgt * ratio
	}

	// Settles within two passes.
	for i := 0; i < 3; i++ {
		if w < min.W {
			w = min.W
			hgt = w / ratio
		}
		if hgt < min.H {
			hgt = min.H
			w = hgt * ratio
		}
	}
	return w, hgt
}
