package geom

import "math"

// Point is a 2D point or vector. Desk and screen coordinates share the type;
// which space a value lives in is tracked by the caller.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point       { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point       { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(k float64) Point   { return Point{p.X * k, p.Y * k} }
func (p Point) Len() float64            { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(q Point) float64    { return p.Sub(q).Len() }
func (p Point) DistSq(q Point) float64  { d := p.Sub(q); return d.X*d.X + d.Y*d.Y }
func (p Point) Dot(q Point) float64     { return p.X*q.X + p.Y*q.Y }
func (p Point) Mid(q Point) Point       { return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }
func (p Point) Near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RectFromPoints returns the rectangle spanned by two corners in any order.
func RectFromPoints(a, b Point) Rect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// BoundsOf returns the tight bounding box of pts. ok is false for an empty slice.
func BoundsOf(pts []Point) (r Rect, ok bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

func (r Rect) Min() Point    { return Point{r.X, r.Y} }
func (r Rect) Max() Point    { return Point{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) Size() Size    { return Size{r.W, r.H} }

// Translate moves the rectangle by d.
func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Expand grows the rectangle by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// DistTo returns the distance from p to the closest point of r (0 inside).
func (r Rect) DistTo(p Point) float64 {
	dx := math.Max(math.Max(r.X-p.X, 0), p.X-(r.X+r.W))
	dy := math.Max(math.Max(r.Y-p.Y, 0), p.Y-(r.Y+r.H))
	return math.Hypot(dx, dy)
}

// SegmentDistSq returns the squared distance from p to the segment a-b.
func SegmentDistSq(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.DistSq(a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = Clamp(t, 0, 1)
	return p.DistSq(a.Add(ab.Scale(t)))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToDesk converts a screen point to desk coordinates for the given pan offset
// and zoom scale: desk = (screen - offset) / scale.
func ToDesk(screen, offset Point, scale float64) Point {
	return Point{(screen.X - offset.X) / scale, (screen.Y - offset.Y) / scale}
}

// ToScreen is the inverse of ToDesk.
func ToScreen(desk, offset Point, scale float64) Point {
	return Point{desk.X*scale + offset.X, desk.Y*scale + offset.Y}
}

// RectToDesk converts a screen-space rectangle to desk space.
func RectToDesk(r Rect, offset Point, scale float64) Rect {
	return RectFromPoints(ToDesk(r.Min(), offset, scale), ToDesk(r.Max(), offset, scale))
}
