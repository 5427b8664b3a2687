// Package viewport computes the render set for a frame: the nodes and edges
// that can appear inside the (buffered) visible world rectangle at the
// current level of detail.
package viewport

import (
	"go.uber.org/zap"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/spatial"
)

// CullResult is the output of a culling pass
type CullResult struct {
	Nodes  []*entities.Node
	Edges  []*entities.Edge
	Tier   valueobjects.Tier
	Lookup map[string]*entities.Node // id -> node, for O(1) endpoint resolution
}

// Culler produces the visible render set from the scope's collections
type Culler struct {
	cfg    *config.EngineConfig
	logger *zap.Logger
}

// NewCuller creates a culler from engine configuration
func NewCuller(cfg *config.EngineConfig, logger *zap.Logger) *Culler {
	return &Culler{cfg: cfg, logger: logger}
}

// Cull computes the visible node and edge sets for the given viewport.
//
// nodes and edges are the current scope's collections after clustering. The
// visible rectangle is buffered proportionally to viewport size — less at the
// cluster tier, where dots need no pan lookahead, more at detail tiers to
// avoid pop-in. The spatial query is additionally expanded on the top and
// left by the maximum plausible node dimension because the index is keyed by
// top-left corner, not bounding box.
func (c *Culler) Cull(
	nodes []*entities.Node,
	edges []*entities.Edge,
	transform valueobjects.Transform,
	screenWidth, screenHeight float64,
	tier valueobjects.Tier,
) *CullResult {
	result := &CullResult{
		Tier:   tier,
		Lookup: make(map[string]*entities.Node, len(nodes)),
	}
	if !transform.IsValid() || screenWidth <= 0 || screenHeight <= 0 {
		return result
	}

	for _, n := range nodes {
		if n != nil {
			result.Lookup[n.ID.String()] = n
		}
	}

	visible := transform.VisibleWorldRect(screenWidth, screenHeight)

	mult := c.cfg.BufferMultiplierDetail
	if tier == valueobjects.TierCluster {
		mult = c.cfg.BufferMultiplierCluster
	}
	buffered := visible.Expand(
		visible.Width()*mult, visible.Height()*mult,
		visible.Width()*mult, visible.Height()*mult,
	)

	// Corner-keyed index: a node whose top-left lies up to a node-dimension
	// above or left of the buffered rect can still overlap it.
	query := buffered.Expand(c.cfg.MaxNodeDimension, c.cfg.MaxNodeDimension, 0, 0)

	index := spatial.Build(nodes)
	index.VisitRange(query, func(n *entities.Node) {
		if n.Bounds().Intersects(buffered) {
			result.Nodes = append(result.Nodes, n)
		}
	})

	// Dot-mode is an overview; connector clutter is not useful at that
	// density, so edge computation is skipped wholesale.
	if tier == valueobjects.TierCluster {
		return result
	}

	edgeRect := visible.Expand(
		visible.Width()*c.cfg.EdgeBufferMultiplier, visible.Height()*c.cfg.EdgeBufferMultiplier,
		visible.Width()*c.cfg.EdgeBufferMultiplier, visible.Height()*c.cfg.EdgeBufferMultiplier,
	)

	for _, e := range edges {
		if e == nil {
			continue
		}
		src, okSrc := result.Lookup[e.Source.String()]
		dst, okDst := result.Lookup[e.Target.String()]
		if !okSrc || !okDst {
			// Dangling endpoints drop the edge from the render set only; the
			// stored model keeps it.
			continue
		}
		if !src.HasFinitePosition() || !dst.HasFinitePosition() {
			continue
		}
		if src.Bounds().Union(dst.Bounds()).Intersects(edgeRect) {
			result.Edges = append(result.Edges, e)
		}
	}

	return result
}
