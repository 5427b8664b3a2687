// Package lod maps the continuous zoom scale onto discrete level-of-detail
// tiers and tracks the semantic-shift threshold that pops the current scope
// when the user keeps zooming out.
package lod

import (
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
)

// Resolver selects rendering tiers from the zoom scalar. Tier selection is a
// pure function; the resolver additionally carries the one-shot latch for
// semantic scope exits so a sustained sub-threshold zoom fires exactly once.
type Resolver struct {
	shiftZoom   float64
	clusterZoom float64
	titleZoom   float64

	shiftLatched bool
}

// NewResolver creates a resolver from engine configuration
func NewResolver(cfg *config.EngineConfig) *Resolver {
	return &Resolver{
		shiftZoom:   cfg.ShiftZoom,
		clusterZoom: cfg.ClusterZoom,
		titleZoom:   cfg.TitleZoom,
	}
}

// Tier returns the detail tier for a zoom factor. Monotonic in k: a larger
// zoom never yields a less detailed tier.
func (r *Resolver) Tier(k float64) valueobjects.Tier {
	switch {
	case k < r.clusterZoom:
		return valueobjects.TierCluster
	case k < r.titleZoom:
		return valueobjects.TierTitle
	default:
		return valueobjects.TierDetail
	}
}

// ShouldShift reports whether zooming out past the shift threshold should pop
// the current scope. It fires once per downward crossing: while the zoom
// stays below the threshold the latch holds, and it re-arms only after the
// zoom recovers above the threshold (or after the post-shift zoom reset).
// The shift requires both a non-root scope and an available navigate-up path.
func (r *Resolver) ShouldShift(k float64, scope valueobjects.ScopeID, canNavigateUp bool) bool {
	if k >= r.shiftZoom {
		r.shiftLatched = false
		return false
	}
	if r.shiftLatched || scope.IsRoot() || !canNavigateUp {
		return false
	}
	r.shiftLatched = true
	return true
}

// ResetShift re-arms the semantic-shift latch, used when the scope changes
// through an explicit navigation rather than a zoom recovery.
func (r *Resolver) ResetShift() {
	r.shiftLatched = false
}
