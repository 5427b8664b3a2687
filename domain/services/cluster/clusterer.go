// Package cluster groups nearby nodes into synthetic cluster nodes when the
// canvas is zoomed out far enough that individual nodes would be illegible.
//
// The grouping is greedy and star-shaped: nodes are claimed by the first seed
// (in id order) whose radius covers them, not chained transitively into
// connected components. This keeps the pass deterministic and single-scan;
// an exact k-center solve is not attempted.
package cluster

import (
	"sort"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// Clusterer performs the zoom-dependent grouping pass
type Clusterer struct {
	pixelRadius float64
	disableZoom float64
	badgeSize   float64
}

// NewClusterer creates a clusterer from engine configuration
func NewClusterer(cfg *config.EngineConfig) *Clusterer {
	return &Clusterer{
		pixelRadius: cfg.ClusterPixelRadius,
		disableZoom: cfg.ClusterDisableZoom,
		badgeSize:   cfg.ClusterBadgeSize,
	}
}

// Cluster returns the render node set for the given zoom. At or above the
// disable threshold the input is returned unchanged. Below it, nodes within
// the seed radius of an unassigned seed collapse into one synthetic cluster
// node positioned at the member centroid.
//
// Output is deterministic for a fixed (nodes, zoom) pair regardless of input
// order, and every input node appears in exactly one output entry.
func (c *Clusterer) Cluster(nodes []*entities.Node, zoom float64) []*entities.Node {
	out, _ := c.ClusterWithMembership(nodes, zoom)
	return out
}

// ClusterWithMembership additionally reports, keyed by member id, which
// synthetic cluster absorbed each clustered node. Callers use the map to
// redirect edge endpoints to the cluster that now stands in for them.
// Nodes that survive unclustered do not appear in the map.
func (c *Clusterer) ClusterWithMembership(nodes []*entities.Node, zoom float64) ([]*entities.Node, map[string]valueobjects.NodeID) {
	if zoom >= c.disableZoom || len(nodes) == 0 {
		return nodes, nil
	}

	// World-space radius giving clusters a stable on-screen footprint.
	radius := c.pixelRadius / zoom
	radiusSq := radius * radius

	// Total order by id: output must depend on content, not on slice order.
	sorted := make([]*entities.Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	assigned := make(map[string]bool, len(sorted))
	membership := make(map[string]valueobjects.NodeID)
	out := make([]*entities.Node, 0, len(sorted))

	for i, seed := range sorted {
		if assigned[seed.ID.String()] {
			continue
		}
		assigned[seed.ID.String()] = true

		// Nodes without usable coordinates cannot participate in distance
		// checks; pass them through untouched.
		if !seed.HasFinitePosition() {
			out = append(out, seed)
			continue
		}

		members := []*entities.Node{seed}
		seedPos := seed.Position()
		for _, candidate := range sorted[i+1:] {
			if assigned[candidate.ID.String()] || !candidate.HasFinitePosition() {
				continue
			}
			if seedPos.DistanceSquared(candidate.Position()) <= radiusSq {
				assigned[candidate.ID.String()] = true
				members = append(members, candidate)
			}
		}

		if len(members) == 1 {
			out = append(out, seed)
			continue
		}

		var sumX, sumY float64
		ids := make([]valueobjects.NodeID, len(members))
		for j, m := range members {
			sumX += m.X
			sumY += m.Y
			ids[j] = m.ID
		}
		centroid := valueobjects.Point{
			X: sumX / float64(len(members)),
			Y: sumY / float64(len(members)),
		}

		clusterNode, err := entities.NewClusterNode(seed.ID, centroid, ids, c.badgeSize/zoom)
		if err != nil {
			// Cannot happen with a non-empty member list; degrade to the seed
			// rather than dropping nodes from the frame.
			out = append(out, seed)
			continue
		}
		for _, m := range ids {
			membership[m.String()] = clusterNode.ID
		}
		out = append(out, clusterNode)
	}

	return out, membership
}
