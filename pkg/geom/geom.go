// Geometric primitives shared by layout, camera, minimap and export.

package geom

import "math"

// Point represents a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p*s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Lerp interpolates between p and q, t in [0,1].
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Rect is an axis-aligned rectangle given by its corners.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// RectAround returns the rectangle of size w x h centred on c.
func RectAround(c Point, w, h float64) Rect {
	return Rect{c.X - w/2, c.Y - h/2, c.X + w/2, c.Y + h/2}
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the centre point.
func (r Rect) Center() Point {
	return Point{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.MaxX <= r.MinX || r.MaxY <= r.MinY }

// Contains checks if a point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX &&
		p.Y >= r.MinY && p.Y <= r.MaxY
}

// Expand grows the rectangle by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{r.MinX - d, r.MinY - d, r.MaxX + d, r.MaxY + d}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		math.Min(r.MinX, o.MinX), math.Min(r.MinY, o.MinY),
		math.Max(r.MaxX, o.MaxX), math.Max(r.MaxY, o.MaxY),
	}
}

// Bounds returns the bounding box of a set of rectangles and whether any
// were given.
func Bounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	b := rects[0]
	for _, r := range rects[1:] {
		b = b.Union(r)
	}
	return b, true
}

// RectOverlap returns the overlap area between two rectangles.
// Returns 0 if they don't overlap.
func RectOverlap(a, b Rect) float64 {
	overlapX := math.Min(a.MaxX, b.MaxX) - math.Max(a.MinX, b.MinX)
	overlapY := math.Min(a.MaxY, b.MaxY) - math.Max(a.MinY, b.MinY)

	if overlapX <= 0 || overlapY <= 0 {
		return 0
	}

	return overlapX * overlapY
}

// Transform is a uniform scale followed by a translation:
// out = in*Scale + Offset.
type Transform struct {
	Scale  float64
	Offset Point
}

// Fit returns the transform that maps src into a dst-sized box, preserving
// aspect ratio (scale = min(scaleX, scaleY)) and centring the result.
func Fit(src Rect, dstW, dstH, padding float64) Transform {
	availW := dstW - 2*padding
	availH := dstH - 2*padding
	w, h := src.Width(), src.Height()

	// Degenerate content: treat as a unit box so the scale stays finite.
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	if availW <= 0 || availH <= 0 {
		return Transform{Scale: 1}
	}

	scale := math.Min(availW/w, availH/h)
	c := src.Center()
	return Transform{
		Scale: scale,
		Offset: Point{
			X: dstW/2 - c.X*scale,
			Y: dstH/2 - c.Y*scale,
		},
	}
}

// Apply maps a point through the transform.
func (t Transform) Apply(p Point) Point {
	return Point{p.X*t.Scale + t.Offset.X, p.Y*t.Scale + t.Offset.Y}
}

// ApplyRect maps a rectangle through the transform.
func (t Transform) ApplyRect(r Rect) Rect {
	a := t.Apply(Point{r.MinX, r.MinY})
	b := t.Apply(Point{r.MaxX, r.MaxY})
	return Rect{a.X, a.Y, b.X, b.Y}
}

// Invert maps a point from output space back into input space.
func (t Transform) Invert(p Point) Point {
	if t.Scale == 0 {
		return p
	}
	return Point{(p.X - t.Offset.X) / t.Scale, (p.Y - t.Offset.Y) / t.Scale}
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
