package services

import (
	"go.uber.org/zap"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/cluster"
	"canvas-engine/domain/services/edgegeom"
	"canvas-engine/domain/services/lod"
	"canvas-engine/domain/services/viewport"
	"canvas-engine/pkg/observability"
)

// NodeMode is the per-node visual/interaction mode for a frame
type NodeMode string

const (
	ModeDot          NodeMode = "dot"
	ModeHubLabel     NodeMode = "hub_label"
	ModeClusterBadge NodeMode = "cluster_badge"
	ModeTitleBadge   NodeMode = "title_badge"
	ModeCompact      NodeMode = "compact"
	ModeFull         NodeMode = "full"
)

// RenderNode is a node plus its resolved visual mode
type RenderNode struct {
	Node     *entities.Node
	Mode     NodeMode
	Selected bool
	Hub      bool
}

// RenderEdge is an edge plus its computed connector path
type RenderEdge struct {
	Edge *entities.Edge
	Path *edgegeom.Path
}

// Frame is one assembled render pass
type Frame struct {
	Nodes        []RenderNode
	Edges        []RenderEdge
	Tier         valueobjects.Tier
	Transform    valueobjects.Transform
	ScopeShifted bool
}

// RenderService derives the visible frame from the working set: scope
// filter, clustering, culling, mode resolution and connector geometry.
type RenderService struct {
	store     *GraphStore
	navigator *ScopeNavigator
	clusterer *cluster.Clusterer
	lod       *lod.Resolver
	culler    *viewport.Culler
	edgeGeom  *edgegeom.Engine
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRenderService creates the frame assembler
func NewRenderService(
	store *GraphStore,
	navigator *ScopeNavigator,
	clusterer *cluster.Clusterer,
	lodResolver *lod.Resolver,
	culler *viewport.Culler,
	edgeGeom *edgegeom.Engine,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RenderService {
	return &RenderService{
		store:     store,
		navigator: navigator,
		clusterer: clusterer,
		lod:       lodResolver,
		culler:    culler,
		edgeGeom:  edgeGeom,
		metrics:   metrics,
		logger:    logger,
	}
}

// BuildFrame assembles the render set for a viewport of the given pixel
// size. Zooming out past the semantic-shift threshold pops the current scope
// once and resets the transform before the frame is assembled.
func (r *RenderService) BuildFrame(screenWidth, screenHeight float64) *Frame {
	transform := r.store.Transform()
	scope := r.store.Scope()

	shifted := false
	if r.lod.ShouldShift(transform.K, scope, r.navigator != nil) {
		r.navigator.ExitScope(valueobjects.NodeID{})
		r.store.SetTransform(valueobjects.IdentityTransform())
		transform = r.store.Transform()
		scope = r.store.Scope()
		shifted = true
	}

	tier := r.lod.Tier(transform.K)
	snapshot := r.store.Snapshot()

	scopeNodes := snapshot.NodesInScope(scope)
	scopeEdges := snapshot.EdgesInScope(scope)

	renderNodes, membership := r.clusterer.ClusterWithMembership(scopeNodes, transform.K)
	renderEdges := remapEdgesToClusters(scopeEdges, membership)
	culled := r.culler.Cull(renderNodes, renderEdges, transform, screenWidth, screenHeight, tier)

	frame := &Frame{
		Tier:         tier,
		Transform:    transform,
		ScopeShifted: shifted,
		Nodes:        make([]RenderNode, 0, len(culled.Nodes)),
		Edges:        make([]RenderEdge, 0, len(culled.Edges)),
	}

	for _, n := range culled.Nodes {
		selected := r.store.IsSelected(n.ID)
		hub := snapshot.IsHub(n.ID)
		frame.Nodes = append(frame.Nodes, RenderNode{
			Node:     n,
			Mode:     resolveMode(n, tier, selected, hub),
			Selected: selected,
			Hub:      hub,
		})
	}

	for _, e := range culled.Edges {
		src := culled.Lookup[e.Source.String()]
		dst := culled.Lookup[e.Target.String()]
		path := r.edgeGeom.ComputePath(src, dst, tier, edgegeom.RoleFlags{
			SourceIsParent: snapshot.IsHub(e.Source),
			SourceSelected: r.store.IsSelected(e.Source),
			TargetIsParent: snapshot.IsHub(e.Target),
			TargetSelected: r.store.IsSelected(e.Target),
		})
		if path == nil {
			continue
		}
		frame.Edges = append(frame.Edges, RenderEdge{Edge: e, Path: path})
	}

	r.metrics.FramesBuilt.Inc()
	r.metrics.NodesCulled.Observe(float64(len(frame.Nodes)))
	r.metrics.EdgesCulled.Observe(float64(len(frame.Edges)))

	return frame
}

// remapEdgesToClusters redirects edge endpoints absorbed into a synthetic
// cluster onto the cluster node, so the edge still resolves against the
// rendered node set. Edges that collapse entirely inside one cluster are
// dropped, and parallel edges remapped onto the same pair collapse to one.
func remapEdgesToClusters(edges []*entities.Edge, membership map[string]valueobjects.NodeID) []*entities.Edge {
	if len(membership) == 0 {
		return edges
	}
	out := make([]*entities.Edge, 0, len(edges))
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e == nil {
			continue
		}
		src, srcClustered := membership[e.Source.String()]
		dst, dstClustered := membership[e.Target.String()]
		if !srcClustered && !dstClustered {
			out = append(out, e)
			continue
		}
		if !srcClustered {
			src = e.Source
		}
		if !dstClustered {
			dst = e.Target
		}
		if src.Equals(dst) {
			continue
		}
		key := src.String() + ">" + dst.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		remapped := e.Clone()
		remapped.Source = src
		remapped.Target = dst
		out = append(out, remapped)
	}
	return out
}

// resolveMode maps a node and tier onto its visual mode
func resolveMode(n *entities.Node, tier valueobjects.Tier, selected, hub bool) NodeMode {
	switch tier {
	case valueobjects.TierCluster:
		if n.IsCluster() {
			return ModeClusterBadge
		}
		if hub {
			return ModeHubLabel
		}
		return ModeDot
	case valueobjects.TierTitle:
		if selected {
			return ModeFull
		}
		return ModeTitleBadge
	default:
		if selected || hub {
			return ModeFull
		}
		return ModeCompact
	}
}
