package valueobjects

// Transform is the viewport transform: a pan offset in screen pixels and a
// zoom scale factor. World to screen: screen = world*K + (X, Y).
type Transform struct {
	X float64
	Y float64
	K float64
}

// IdentityTransform returns the neutral transform (no pan, zoom 1.0)
func IdentityTransform() Transform {
	return Transform{X: 0, Y: 0, K: 1}
}

// IsValid reports whether the transform has a usable zoom factor
func (t Transform) IsValid() bool {
	return t.K > 0
}

// WorldToScreen converts a world point to screen pixels
func (t Transform) WorldToScreen(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// ScreenToWorld converts a screen point back into world coordinates
func (t Transform) ScreenToWorld(p Point) Point {
	return Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// VisibleWorldRect returns the world-space rectangle covered by a screen
// viewport of the given pixel size under this transform.
func (t Transform) VisibleWorldRect(screenWidth, screenHeight float64) Rect {
	topLeft := t.ScreenToWorld(Point{X: 0, Y: 0})
	bottomRight := t.ScreenToWorld(Point{X: screenWidth, Y: screenHeight})
	return Rect{MinX: topLeft.X, MinY: topLeft.Y, MaxX: bottomRight.X, MaxY: bottomRight.Y}
}

// CenteredOn returns a transform that places the given world point at the
// center of a viewport of the given pixel size, at the requested zoom.
func CenteredOn(world Point, screenWidth, screenHeight, zoom float64) Transform {
	return Transform{
		X: screenWidth/2 - world.X*zoom,
		Y: screenHeight/2 - world.Y*zoom,
		K: zoom,
	}
}
