package geom

// Cubic is a cubic Bezier segment.
type Cubic struct {
	P0 Point `json:"start"`
	P1 Point `json:"c1"`
	P2 Point `json:"c2"`
	P3 Point `json:"end"`
}

// At evaluates the curve at t in [0, 1].
func (c Cubic) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// Bounds returns the bounding box of the control polygon, which contains the curve.
func (c Cubic) Bounds() Rect {
	r, _ := BoundsOf([]Point{c.P0, c.P1, c.P2, c.P3})
	return r
}
