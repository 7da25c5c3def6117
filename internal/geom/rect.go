package geom

import "math"

// Rect is an axis-aligned rectangle. Width and Height may be negative while a
// rectangle is being built; constructors derived from points normalise them.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the smallest rect containing all pts.
func RectFromPoints(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) MinX() float64 { return math.Min(r.X, r.X+r.Width) }
func (r Rect) MaxX() float64 { return math.Max(r.X, r.X+r.Width) }
func (r Rect) MinY() float64 { return math.Min(r.Y, r.Y+r.Height) }
func (r Rect) MaxY() float64 { return math.Max(r.Y, r.Y+r.Height) }

// Standardized returns an equivalent rect with non-negative size.
func (r Rect) Standardized() Rect {
	return Rect{X: r.MinX(), Y: r.MinY(), Width: math.Abs(r.Width), Height: math.Abs(r.Height)}
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains checks if a point is inside the rect, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X <= r.MaxX() && p.Y >= r.MinY() && p.Y <= r.MaxY()
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.MinX() >= r.MinX() && o.MaxX() <= r.MaxX() &&
		o.MinY() >= r.MinY() && o.MaxY() <= r.MaxY()
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inset shrinks the rect by dx on the left and right and dy on the top and
// bottom. Negative values grow it.
func (r Rect) Inset(dx, dy float64) Rect {
	s := r.Standardized()
	return Rect{X: s.X + dx, Y: s.Y + dy, Width: s.Width - 2*dx, Height: s.Height - 2*dy}
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := math.Min(r.MinX(), other.MinX())
	minY := math.Min(r.MinY(), other.MinY())
	maxX := math.Max(r.MaxX(), other.MaxX())
	maxY := math.Max(r.MaxY(), other.MaxY())

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Corners returns the four corners clockwise from (minX, minY) in a y-down
// space.
func (r Rect) Corners() [4]Point {
	s := r.Standardized()
	return [4]Point{
		{s.X, s.Y},
		{s.X + s.Width, s.Y},
		{s.X + s.Width, s.Y + s.Height},
		{s.X, s.Y + s.Height},
	}
}

// Applying transforms the rect and returns its axis-aligned bounding box.
func (r Rect) Applying(m Matrix) Rect {
	return m.TransformRect(r)
}
