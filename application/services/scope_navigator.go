package services

import (
	"sort"

	"go.uber.org/zap"

	"canvas-engine/application/ports"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/lod"
)

// ScopeNavigator manages nested sub-graph navigation: entering a node's
// scope, exiting back to the parent, and deriving breadcrumb paths.
type ScopeNavigator struct {
	store  *GraphStore
	lod    *lod.Resolver
	events ports.NavigationEvents
	logger *zap.Logger

	screenWidth  float64
	screenHeight float64
}

// NewScopeNavigator creates a navigator over the store
func NewScopeNavigator(store *GraphStore, lodResolver *lod.Resolver, events ports.NavigationEvents, logger *zap.Logger) *ScopeNavigator {
	return &ScopeNavigator{
		store:  store,
		lod:    lodResolver,
		events: events,
		logger: logger,
	}
}

// SetViewportSize records the pixel viewport used for exit-focus transforms
func (n *ScopeNavigator) SetViewportSize(width, height float64) {
	n.screenWidth = width
	n.screenHeight = height
}

// EnterScope navigates down into the given node's scope and clears the
// selection in the new view.
func (n *ScopeNavigator) EnterScope(id valueobjects.NodeID) {
	if id.IsZero() {
		return
	}
	scope := valueobjects.NewScopeID(id.String())
	n.store.SetScope(scope)
	n.lod.ResetShift()
	if n.events != nil {
		n.events.ScopeEntered(scope)
	}
	n.logger.Debug("entered scope", zap.String("scope", scope.String()))
}

// ExitScope navigates up out of the given scope node. With a zero id the
// current scope is exited. The exited node becomes the selection in the
// parent view, and the viewport re-centers on it at full detail.
func (n *ScopeNavigator) ExitScope(exiting valueobjects.NodeID) {
	current := n.store.Scope()
	if exiting.IsZero() {
		if current.IsRoot() {
			return
		}
		id, err := valueobjects.NewNodeIDFromString(current.String())
		if err != nil {
			return
		}
		exiting = id
	}

	parent := valueobjects.RootScope()
	snapshot := n.store.Snapshot()
	if node, ok := snapshot.NodeByID(exiting); ok {
		parent = node.Parent
		n.store.SetScope(parent)
		n.store.Select(exiting, false)
		if n.screenWidth > 0 && n.screenHeight > 0 {
			n.store.SetTransform(valueobjects.CenteredOn(node.Center(), n.screenWidth, n.screenHeight, 1))
		} else {
			n.store.SetTransform(valueobjects.IdentityTransform())
		}
	} else {
		// Scope node vanished from the working set; land in the root scope
		// rather than stranding the user in an orphaned view.
		n.store.SetScope(parent)
		n.store.SetTransform(valueobjects.IdentityTransform())
	}

	n.lod.ResetShift()
	if n.events != nil {
		n.events.ScopeExited(valueobjects.NewScopeID(exiting.String()))
		n.events.Selected(exiting, false)
	}
	n.logger.Debug("exited scope",
		zap.String("exited", exiting.String()),
		zap.String("parent", parent.String()),
	)
}

// Breadcrumb derives a display path for the selected node: the scope
// ancestor chain from the root down, then the shortest in-scope connectivity
// path from a zero-in-degree root candidate to the node. When no such path
// exists the breadcrumb degrades to just the node itself.
func (n *ScopeNavigator) Breadcrumb(selected valueobjects.NodeID) []valueobjects.NodeID {
	if selected.IsZero() {
		return nil
	}
	snapshot := n.store.Snapshot()
	scope := n.store.Scope()

	// Scope ancestors come back leaf-first; breadcrumbs read root-first.
	ancestors := snapshot.AncestorScopes(scope)
	crumb := make([]valueobjects.NodeID, 0, len(ancestors)+4)
	for i := len(ancestors) - 1; i >= 0; i-- {
		if id, err := valueobjects.NewNodeIDFromString(ancestors[i].String()); err == nil {
			crumb = append(crumb, id)
		}
	}

	path := n.shortestScopePath(selected)
	return append(crumb, path...)
}

// shortestScopePath runs a BFS over the in-scope edge graph from each root
// candidate toward the selected node, returning the first shortest path.
func (n *ScopeNavigator) shortestScopePath(selected valueobjects.NodeID) []valueobjects.NodeID {
	snapshot := n.store.Snapshot()
	scope := n.store.Scope()

	adjacency := make(map[string][]string)
	for _, e := range snapshot.EdgesInScope(scope) {
		adjacency[e.Source.String()] = append(adjacency[e.Source.String()], e.Target.String())
	}
	for id := range adjacency {
		sort.Strings(adjacency[id])
	}

	roots := snapshot.RootCandidates(scope)
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].ID.String() < roots[j].ID.String()
	})

	target := selected.String()
	var best []string
	for _, root := range roots {
		if path := bfsPath(adjacency, root.ID.String(), target); path != nil {
			if best == nil || len(path) < len(best) {
				best = path
			}
		}
	}
	if best == nil {
		return []valueobjects.NodeID{selected}
	}

	out := make([]valueobjects.NodeID, 0, len(best))
	for _, id := range best {
		nodeID, err := valueobjects.NewNodeIDFromString(id)
		if err != nil {
			continue
		}
		out = append(out, nodeID)
	}
	return out
}

// bfsPath finds the shortest directed path from start to target, or nil
func bfsPath(adjacency map[string][]string, start, target string) []string {
	if start == target {
		return []string{start}
	}
	prev := map[string]string{start: ""}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = current
			if next == target {
				var path []string
				for at := target; at != ""; at = prev[at] {
					path = append([]string{at}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}
