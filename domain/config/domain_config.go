package config

import (
	"fmt"
	"time"
)

// EngineConfig holds all tunable constants of the canvas engine.
// Everything here is a tuning knob, not a behavioral switch: changing a value
// shifts thresholds and strengths but never the shape of the algorithms.
type EngineConfig struct {
	// Node geometry defaults
	DefaultNodeWidth  float64
	DefaultNodeHeight float64
	CompactNodeHeight float64
	MinNodeWidth      float64
	MinNodeHeight     float64
	MaxNodeDimension  float64 // top/left culling margin, see viewport.Culler

	// Level-of-detail thresholds (must satisfy ShiftZoom < ClusterZoom < TitleZoom)
	ShiftZoom   float64 // below this, semantic scope-exit fires
	ClusterZoom float64 // below this, nodes render as dots/hub labels
	TitleZoom   float64 // below this, nodes render as title badges

	// Clustering
	ClusterPixelRadius float64
	ClusterDisableZoom float64
	ClusterBadgeSize   float64
	HubPointSize       float64
	DotSize            float64
	TitleBadgeWidth    float64
	TitleBadgeHeight   float64

	// Viewport culling
	BufferMultiplierDetail  float64
	BufferMultiplierCluster float64
	EdgeBufferMultiplier    float64

	// Edge geometry
	StraightEdgeThreshold float64 // |dy| below which connectors render straight
	CurveOffset           float64

	// Force/collision layout
	LayoutIterations   int
	RepulsionStrength  float64
	LinkDistance       float64
	LinkStrength       float64
	CollisionMargin    float64
	CenteringStrength  float64
	TreeLevelSpacing   float64
	TreeSiblingSpacing float64

	// Scheduling
	CollisionDebounce     time.Duration
	ViewportFetchDebounce time.Duration
	ViewportFetchMinGap   time.Duration
	ViewportQuantum       float64

	// Expansion
	MaxExpansionNodes   int
	MaxExpansionDepth   int
	ExpansionCacheTTL   time.Duration
	SubtopicResultLimit int

	// Deletion
	DeleteGraceWindow time.Duration
}

// DefaultEngineConfig returns the default engine configuration
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		DefaultNodeWidth:  300,
		DefaultNodeHeight: 200,
		CompactNodeHeight: 40,
		MinNodeWidth:      180,
		MinNodeHeight:     40,
		MaxNodeDimension:  800,

		ShiftZoom:   0.05,
		ClusterZoom: 0.1,
		TitleZoom:   0.5,

		ClusterPixelRadius: 100,
		ClusterDisableZoom: 0.5,
		ClusterBadgeSize:   48,
		HubPointSize:       24,
		DotSize:            8,
		TitleBadgeWidth:    160,
		TitleBadgeHeight:   36,

		BufferMultiplierDetail:  0.5,
		BufferMultiplierCluster: 0.15,
		EdgeBufferMultiplier:    0.1,

		StraightEdgeThreshold: 30,
		CurveOffset:           60,

		LayoutIterations:   150,
		RepulsionStrength:  400,
		LinkDistance:       360,
		LinkStrength:       0.4,
		CollisionMargin:    24,
		CenteringStrength:  0.05,
		TreeLevelSpacing:   280,
		TreeSiblingSpacing: 360,

		CollisionDebounce:     250 * time.Millisecond,
		ViewportFetchDebounce: 200 * time.Millisecond,
		ViewportFetchMinGap:   time.Second,
		ViewportQuantum:       500,

		MaxExpansionNodes:   8,
		MaxExpansionDepth:   2,
		ExpansionCacheTTL:   10 * time.Minute,
		SubtopicResultLimit: 10,

		DeleteGraceWindow: 5 * time.Second,
	}
}

// CompactEngineConfig returns a configuration tuned for dense graphs:
// tighter buffers and a shorter grace window, useful for stress testing.
func CompactEngineConfig() *EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.BufferMultiplierDetail = 0.25
	cfg.ClusterPixelRadius = 60
	cfg.DeleteGraceWindow = 2 * time.Second
	return cfg
}

// Validate checks if the configuration is internally consistent
func (c *EngineConfig) Validate() error {
	if !(c.ShiftZoom < c.ClusterZoom && c.ClusterZoom < c.TitleZoom) {
		return fmt.Errorf("zoom thresholds must be ordered: shift %v < cluster %v < title %v",
			c.ShiftZoom, c.ClusterZoom, c.TitleZoom)
	}
	if c.MinNodeWidth <= 0 || c.MinNodeHeight <= 0 {
		return fmt.Errorf("minimum node dimensions must be positive")
	}
	if c.LayoutIterations <= 0 {
		return fmt.Errorf("layout iterations must be positive")
	}
	return nil
}
