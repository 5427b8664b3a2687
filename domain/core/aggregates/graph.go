package aggregates

import (
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// Graph is the working set the engine renders from: the full node and edge
// collections plus derived lookups. It is a read-model snapshot — a single
// external owner (the graph store) mutates the collections and rebuilds the
// snapshot; the render pipeline only queries it.
type Graph struct {
	nodes  []*entities.Node
	edges  []*entities.Edge
	byID   map[string]*entities.Node
	degree map[string]int // outgoing-edge count per source node id
}

// NewGraph builds a working-set snapshot over the given collections
func NewGraph(nodes []*entities.Node, edges []*entities.Edge) *Graph {
	g := &Graph{
		nodes:  nodes,
		edges:  edges,
		byID:   make(map[string]*entities.Node, len(nodes)),
		degree: make(map[string]int),
	}
	for _, n := range nodes {
		if n != nil {
			g.byID[n.ID.String()] = n
		}
	}
	for _, e := range edges {
		if e != nil {
			g.degree[e.Source.String()]++
		}
	}
	return g
}

// Nodes returns the full node collection
func (g *Graph) Nodes() []*entities.Node {
	return g.nodes
}

// Edges returns the full edge collection
func (g *Graph) Edges() []*entities.Edge {
	return g.edges
}

// NodeByID resolves a node by id
func (g *Graph) NodeByID(id valueobjects.NodeID) (*entities.Node, bool) {
	n, ok := g.byID[id.String()]
	return n, ok
}

// IsHub reports whether the node is the source of at least one edge. Hubs
// render as labels rather than dots at the coarsest tier.
func (g *Graph) IsHub(id valueobjects.NodeID) bool {
	return g.degree[id.String()] > 0
}

// NodesInScope returns the nodes whose parent matches the given scope
func (g *Graph) NodesInScope(scope valueobjects.ScopeID) []*entities.Node {
	out := make([]*entities.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil && n.Parent.Equals(scope) {
			out = append(out, n)
		}
	}
	return out
}

// EdgesInScope returns the edges tagged with the given scope
func (g *Graph) EdgesInScope(scope valueobjects.ScopeID) []*entities.Edge {
	out := make([]*entities.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e != nil && e.Parent.Equals(scope) {
			out = append(out, e)
		}
	}
	return out
}

// AncestorScopes walks the parent chain from the given scope up to the root.
// A visited set guards against parent cycles: callers are expected to keep
// the chain acyclic, but a violated expectation must not hang the engine.
func (g *Graph) AncestorScopes(scope valueobjects.ScopeID) []valueobjects.ScopeID {
	var chain []valueobjects.ScopeID
	visited := make(map[string]bool)

	current := scope
	for !current.IsRoot() {
		if visited[current.String()] {
			break
		}
		visited[current.String()] = true
		chain = append(chain, current)

		node, ok := g.byID[current.String()]
		if !ok {
			break
		}
		current = node.Parent
	}
	return chain
}

// RootCandidates returns the in-scope nodes with zero in-degree within the
// scope's edge set, used as breadcrumb path starting points.
func (g *Graph) RootCandidates(scope valueobjects.ScopeID) []*entities.Node {
	inScope := g.NodesInScope(scope)
	hasIncoming := make(map[string]bool)
	for _, e := range g.EdgesInScope(scope) {
		hasIncoming[e.Target.String()] = true
	}

	out := make([]*entities.Node, 0, len(inScope))
	for _, n := range inScope {
		if !hasIncoming[n.ID.String()] {
			out = append(out, n)
		}
	}
	return out
}
