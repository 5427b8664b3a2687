// Package edgegeom computes connector paths between node boxes. Endpoint
// footprints depend on the level of detail and on each node's role: dots and
// hub points at the coarsest tier, title badges mid-zoom, compact headers at
// detail tier unless the node is selected or a scope parent.
package edgegeom

import (
	"math"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// RoleFlags carries the per-endpoint render roles affecting footprints
type RoleFlags struct {
	SourceIsParent bool
	SourceSelected bool
	TargetIsParent bool
	TargetSelected bool
}

// Path is a computed connector between two node boundaries. Straight paths
// have Control equal to the segment midpoint.
type Path struct {
	Start   valueobjects.Point
	End     valueobjects.Point
	Control valueobjects.Point
	Curved  bool
	LabelAt valueobjects.Point
}

// Engine computes connector paths
type Engine struct {
	cfg *config.EngineConfig
}

// NewEngine creates an edge geometry engine from configuration
func NewEngine(cfg *config.EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// ComputePath returns the connector between two nodes at the given tier, or
// nil when either endpoint is missing or yields non-finite geometry. A nil
// return means "render nothing"; the engine never panics on bad input.
func (g *Engine) ComputePath(source, target *entities.Node, tier valueobjects.Tier, flags RoleFlags) *Path {
	if source == nil || target == nil {
		return nil
	}

	srcBox := g.effectiveBox(source, tier, flags.SourceIsParent, flags.SourceSelected)
	dstBox := g.effectiveBox(target, tier, flags.TargetIsParent, flags.TargetSelected)
	if !srcBox.IsFinite() || !dstBox.IsFinite() {
		return nil
	}

	start, okStart := boundaryPoint(srcBox, dstBox.Center)
	end, okEnd := boundaryPoint(dstBox, srcBox.Center)
	if !okStart || !okEnd || !start.IsFinite() || !end.IsFinite() {
		return nil
	}

	dx := end.X - start.X
	dy := end.Y - start.Y
	mid := valueobjects.Point{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2}

	path := &Path{Start: start, End: end, Control: mid}

	// Near-horizontal connectors render straight; everything else arcs with
	// an offset direction fixed by the deltas' signs so that fans of edges
	// from one node bow the same way instead of crossing themselves.
	if math.Abs(dy) >= g.cfg.StraightEdgeThreshold {
		path.Curved = true
		path.Control = valueobjects.Point{
			X: mid.X + g.cfg.CurveOffset*sign(dx),
			Y: mid.Y - g.cfg.CurveOffset*sign(dy),
		}
	}

	// Quadratic blend at t=1/2 keeps the label on the curve, not beside it.
	path.LabelAt = valueobjects.Point{
		X: 0.25*start.X + 0.5*path.Control.X + 0.25*end.X,
		Y: 0.25*start.Y + 0.5*path.Control.Y + 0.25*end.Y,
	}

	return path
}

// effectiveBox resolves the endpoint footprint for a tier and role
func (g *Engine) effectiveBox(n *entities.Node, tier valueobjects.Tier, isParent, selected bool) valueobjects.Box {
	center := n.Center()

	switch tier {
	case valueobjects.TierCluster:
		size := g.cfg.DotSize
		if isParent || n.IsCluster() {
			size = g.cfg.HubPointSize
		}
		return valueobjects.Box{Center: center, Width: size, Height: size}

	case valueobjects.TierTitle:
		if selected {
			return valueobjects.Box{Center: center, Width: n.Width, Height: n.Height}
		}
		return valueobjects.Box{
			Center: center,
			Width:  g.cfg.TitleBadgeWidth,
			Height: g.cfg.TitleBadgeHeight,
		}

	default: // TierDetail
		if selected || isParent {
			return valueobjects.Box{Center: center, Width: n.Width, Height: n.Height}
		}
		// Compact header-only footprint, anchored at the node's top edge.
		return valueobjects.Box{
			Center: valueobjects.Point{X: n.X + n.Width/2, Y: n.Y + g.cfg.CompactNodeHeight/2},
			Width:  n.Width,
			Height: g.cfg.CompactNodeHeight,
		}
	}
}

// boundaryPoint intersects the ray from the box center toward the given
// point with the box boundary, choosing the exit edge by comparing the ray
// slope against the box aspect ratio.
func boundaryPoint(box valueobjects.Box, toward valueobjects.Point) (valueobjects.Point, bool) {
	dx := toward.X - box.Center.X
	dy := toward.Y - box.Center.Y
	if dx == 0 && dy == 0 {
		return valueobjects.Point{}, false
	}

	halfW := box.Width / 2
	halfH := box.Height / 2

	// |dy|/|dx| <= halfH/halfW means the ray exits through a vertical edge.
	if math.Abs(dy)*halfW <= math.Abs(dx)*halfH {
		x := box.Center.X + halfW*sign(dx)
		y := box.Center.Y + dy*(halfW/math.Abs(dx))
		return valueobjects.Point{X: x, Y: y}, true
	}
	y := box.Center.Y + halfH*sign(dy)
	x := box.Center.X + dx*(halfH/math.Abs(dy))
	return valueobjects.Point{X: x, Y: y}, true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}
