// Package layout recomputes node positions: bounded force/collision passes
// that resolve overlaps after structural changes, and on-demand full layouts
// (tree top-down, tree left-right, or pure force).
package layout

import (
	"math"

	"go.uber.org/zap"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// Kind selects a full-relayout algorithm
type Kind string

const (
	KindForce         Kind = "force"
	KindTreeTopDown   Kind = "tree_top_down"
	KindTreeLeftRight Kind = "tree_left_right"
)

// Engine runs the position simulations. Simulations work on scratch copies
// and write back x/y only; width/height and everything else is untouched.
type Engine struct {
	cfg    *config.EngineConfig
	logger *zap.Logger
}

// NewEngine creates a layout engine from configuration
func NewEngine(cfg *config.EngineConfig, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

// body is per-node simulation scratch state, discarded after each pass
type body struct {
	node   *entities.Node
	x, y   float64
	vx, vy float64
	radius float64
	pinned bool
}

// ResolveCollisions runs a bounded simulation over the given nodes to push
// overlapping boxes apart. If pinned is non-zero, that node is held fixed at
// its current position for the whole pass and ends exactly where it started
// (the just-dragged node must not drift). Nodes with non-finite positions
// are excluded from the pass.
func (e *Engine) ResolveCollisions(nodes []*entities.Node, edges []*entities.Edge, pinned valueobjects.NodeID) {
	bodies := e.makeBodies(nodes, pinned)
	if len(bodies) < 2 {
		return
	}

	links := e.makeLinks(bodies, edges)
	for i := 0; i < e.cfg.LayoutIterations; i++ {
		alpha := cooling(i, e.cfg.LayoutIterations)
		e.applyRepulsion(bodies, alpha)
		e.applyLinks(bodies, links, alpha)
		e.applyCollision(bodies)
		integrate(bodies)
	}

	e.writeBack(bodies)
}

// FullLayout recomputes positions for all given nodes from scratch. Tree
// kinds derive parent/child structure from the edges; when the edge graph
// cannot be stratified into a tree the engine logs and falls back to the
// force layout rather than failing the operation.
func (e *Engine) FullLayout(kind Kind, nodes []*entities.Node, edges []*entities.Edge) {
	switch kind {
	case KindTreeTopDown, KindTreeLeftRight:
		if err := e.treeLayout(kind, nodes, edges); err != nil {
			e.logger.Warn("tree layout not applicable, falling back to force",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			e.forceLayout(nodes, edges)
		}
	default:
		e.forceLayout(nodes, edges)
	}
}

// forceLayout seeds positions on a deterministic phyllotaxis spiral and runs
// the full force model with a centering pull and no pinning.
func (e *Engine) forceLayout(nodes []*entities.Node, edges []*entities.Edge) {
	bodies := e.makeBodies(nodes, valueobjects.NodeID{})
	if len(bodies) == 0 {
		return
	}

	// Deterministic seeding: same input, same layout.
	goldenAngle := math.Pi * (3 - math.Sqrt(5))
	for i, b := range bodies {
		r := e.cfg.LinkDistance * 0.5 * math.Sqrt(float64(i)+0.5)
		a := goldenAngle * float64(i)
		b.x = r * math.Cos(a)
		b.y = r * math.Sin(a)
	}

	links := e.makeLinks(bodies, edges)
	for i := 0; i < e.cfg.LayoutIterations; i++ {
		alpha := cooling(i, e.cfg.LayoutIterations)
		e.applyRepulsion(bodies, alpha)
		e.applyLinks(bodies, links, alpha)
		e.applyCentering(bodies, alpha)
		e.applyCollision(bodies)
		integrate(bodies)
	}

	e.writeBack(bodies)
}

func (e *Engine) makeBodies(nodes []*entities.Node, pinned valueobjects.NodeID) []*body {
	bodies := make([]*body, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || !n.HasFinitePosition() {
			continue
		}
		c := n.Center()
		bodies = append(bodies, &body{
			node:   n,
			x:      c.X,
			y:      c.Y,
			radius: math.Sqrt(n.Width*n.Width+n.Height*n.Height)/2 + e.cfg.CollisionMargin,
			pinned: !pinned.IsZero() && n.ID.Equals(pinned),
		})
	}
	return bodies
}

type link struct {
	a, b *body
}

func (e *Engine) makeLinks(bodies []*body, edges []*entities.Edge) []link {
	byID := make(map[string]*body, len(bodies))
	for _, b := range bodies {
		byID[b.node.ID.String()] = b
	}

	links := make([]link, 0, len(edges))
	for _, edge := range edges {
		if edge == nil {
			continue
		}
		a, okA := byID[edge.Source.String()]
		b, okB := byID[edge.Target.String()]
		if okA && okB && a != b {
			links = append(links, link{a: a, b: b})
		}
	}
	return links
}

func (e *Engine) applyRepulsion(bodies []*body, alpha float64) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			dx := a.x - b.x
			dy := a.y - b.y
			distSq := dx*dx + dy*dy
			if distSq < 1 {
				// Coincident bodies get a deterministic nudge apart.
				distSq = 1
				dx = 1
				dy = 0
			}
			dist := math.Sqrt(distSq)
			force := e.cfg.RepulsionStrength * alpha / dist
			fx := dx / dist * force
			fy := dy / dist * force
			a.vx += fx
			a.vy += fy
			b.vx -= fx
			b.vy -= fy
		}
	}
}

func (e *Engine) applyLinks(bodies []*body, links []link, alpha float64) {
	for _, l := range links {
		dx := l.b.x - l.a.x
		dy := l.b.y - l.a.y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist < 1 {
			dist = 1
		}
		// Spring toward the target link distance.
		displacement := (dist - e.cfg.LinkDistance) * e.cfg.LinkStrength * alpha
		fx := dx / dist * displacement
		fy := dy / dist * displacement
		l.a.vx += fx
		l.a.vy += fy
		l.b.vx -= fx
		l.b.vy -= fy
	}
}

func (e *Engine) applyCentering(bodies []*body, alpha float64) {
	var cx, cy float64
	for _, b := range bodies {
		cx += b.x
		cy += b.y
	}
	cx /= float64(len(bodies))
	cy /= float64(len(bodies))
	for _, b := range bodies {
		b.vx -= cx * e.cfg.CenteringStrength * alpha
		b.vy -= cy * e.cfg.CenteringStrength * alpha
	}
}

// applyCollision performs pairwise positional separation of the bounding
// circles so boxes never visually overlap after the pass settles.
func (e *Engine) applyCollision(bodies []*body) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			dx := b.x - a.x
			dy := b.y - a.y
			dist := math.Sqrt(dx*dx + dy*dy)
			minDist := a.radius + b.radius
			if dist >= minDist {
				continue
			}
			if dist < 1e-6 {
				dist = 1e-6
				dx = 1e-6
				dy = 0
			}
			overlap := (minDist - dist) / dist
			pushX := dx * overlap
			pushY := dy * overlap
			switch {
			case a.pinned && b.pinned:
				// Both held; nothing to separate this pass.
			case a.pinned:
				b.x += pushX
				b.y += pushY
			case b.pinned:
				a.x -= pushX
				a.y -= pushY
			default:
				a.x -= pushX / 2
				a.y -= pushY / 2
				b.x += pushX / 2
				b.y += pushY / 2
			}
		}
	}
}

func integrate(bodies []*body) {
	const velocityDecay = 0.6
	for _, b := range bodies {
		if b.pinned {
			b.vx = 0
			b.vy = 0
			continue
		}
		b.x += b.vx
		b.y += b.vy
		b.vx *= velocityDecay
		b.vy *= velocityDecay
	}
}

// writeBack moves each node so its center matches the simulated body.
// Pinned nodes are skipped entirely, guaranteeing exact final positions.
func (e *Engine) writeBack(bodies []*body) {
	for _, b := range bodies {
		if b.pinned {
			continue
		}
		b.node.MoveTo(b.x-b.node.Width/2, b.y-b.node.Height/2)
	}
}

// cooling decays the simulation temperature linearly to zero
func cooling(iteration, total int) float64 {
	return 1 - float64(iteration)/float64(total)
}
