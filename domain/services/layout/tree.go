package layout

import (
	"sort"

	"canvas-engine/domain/core/entities"
	pkgerrors "canvas-engine/pkg/errors"
)

// treeLayout arranges nodes as a tidy tree derived from the edge graph.
// Stratification requires at least one in-degree-zero root and every node
// reachable from the roots without revisiting; anything else (cycles,
// orphaned components) is reported so the caller can fall back to force.
func (e *Engine) treeLayout(kind Kind, nodes []*entities.Node, edges []*entities.Edge) error {
	usable := make([]*entities.Node, 0, len(nodes))
	byID := make(map[string]*entities.Node, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		usable = append(usable, n)
		byID[n.ID.String()] = n
	}
	if len(usable) == 0 {
		return nil
	}

	children := make(map[string][]string)
	inDegree := make(map[string]int)
	for _, edge := range edges {
		if edge == nil {
			continue
		}
		src := edge.Source.String()
		dst := edge.Target.String()
		if _, ok := byID[src]; !ok {
			continue
		}
		if _, ok := byID[dst]; !ok {
			continue
		}
		children[src] = append(children[src], dst)
		inDegree[dst]++
	}

	var roots []string
	for _, n := range usable {
		if inDegree[n.ID.String()] == 0 {
			roots = append(roots, n.ID.String())
		}
	}
	if len(roots) == 0 {
		return pkgerrors.NewLayoutError("edge graph has no stratifiable root")
	}
	sort.Strings(roots)
	for id := range children {
		sort.Strings(children[id])
	}

	// First walk assigns each leaf a sequential slot and centers parents
	// over their children; depth comes from the walk level.
	slots := make(map[string]float64, len(usable))
	depths := make(map[string]int, len(usable))
	visited := make(map[string]bool, len(usable))
	nextSlot := 0.0

	var place func(id string, depth int) (float64, error)
	place = func(id string, depth int) (float64, error) {
		if visited[id] {
			return 0, pkgerrors.NewLayoutError("edge graph is not a tree: node reached twice")
		}
		visited[id] = true
		depths[id] = depth

		kids := children[id]
		if len(kids) == 0 {
			slots[id] = nextSlot
			nextSlot++
			return slots[id], nil
		}

		first, last := 0.0, 0.0
		for i, kid := range kids {
			s, err := place(kid, depth+1)
			if err != nil {
				return 0, err
			}
			if i == 0 {
				first = s
			}
			last = s
		}
		slots[id] = (first + last) / 2
		return slots[id], nil
	}

	for _, root := range roots {
		if _, err := place(root, 0); err != nil {
			return err
		}
		nextSlot++ // gap between root subtrees
	}
	if len(visited) != len(usable) {
		return pkgerrors.NewLayoutError("edge graph has nodes unreachable from any root")
	}

	for _, n := range usable {
		breadth := slots[n.ID.String()] * e.cfg.TreeSiblingSpacing
		depth := float64(depths[n.ID.String()]) * e.cfg.TreeLevelSpacing
		if kind == KindTreeLeftRight {
			n.MoveTo(depth, breadth-n.Height/2)
		} else {
			n.MoveTo(breadth-n.Width/2, depth)
		}
	}
	return nil
}
