package valueobjects

import "math"

// Point is a position in world coordinates
type Point struct {
	X float64
	Y float64
}

// IsFinite reports whether both coordinates are finite numbers.
// Nodes with NaN/Inf positions are skipped by every geometric pass
// rather than poisoning a whole frame.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// DistanceSquared returns the squared Euclidean distance to another point
func (p Point) DistanceSquared(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Add returns the point translated by (dx, dy)
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Rect is an axis-aligned rectangle in world coordinates
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewRect creates a rectangle from a top-left corner and a size
func NewRect(x, y, width, height float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + width, MaxY: y + height}
}

// Width returns the rectangle's width
func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns the rectangle's height
func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}

// Center returns the rectangle's center point
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Expand returns the rectangle grown by the given margins on each side
func (r Rect) Expand(left, top, right, bottom float64) Rect {
	return Rect{
		MinX: r.MinX - left,
		MinY: r.MinY - top,
		MaxX: r.MaxX + right,
		MaxY: r.MaxY + bottom,
	}
}

// Buffer returns the rectangle grown uniformly by the given margin
func (r Rect) Buffer(margin float64) Rect {
	return r.Expand(margin, margin, margin, margin)
}

// Intersects reports whether two rectangles overlap
func (r Rect) Intersects(other Rect) bool {
	return r.MinX < other.MaxX && r.MaxX > other.MinX &&
		r.MinY < other.MaxY && r.MaxY > other.MinY
}

// Contains reports whether the point lies inside the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Union returns the smallest rectangle covering both rectangles
func (r Rect) Union(other Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, other.MinX),
		MinY: math.Min(r.MinY, other.MinY),
		MaxX: math.Max(r.MaxX, other.MaxX),
		MaxY: math.Max(r.MaxY, other.MaxY),
	}
}

// Box is a positioned rectangle described by its center and dimensions,
// used by the edge geometry engine for effective endpoint footprints.
type Box struct {
	Center Point
	Width  float64
	Height float64
}

// IsFinite reports whether the box has finite, positive geometry
func (b Box) IsFinite() bool {
	return b.Center.IsFinite() &&
		!math.IsNaN(b.Width) && !math.IsInf(b.Width, 0) && b.Width > 0 &&
		!math.IsNaN(b.Height) && !math.IsInf(b.Height, 0) && b.Height > 0
}
