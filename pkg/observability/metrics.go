package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects engine-level counters and histograms. One instance is
// wired through the container; registration happens against the registry
// passed in, so tests can use an isolated registry.
type Metrics struct {
	FramesBuilt      prometheus.Counter
	NodesCulled      prometheus.Histogram
	EdgesCulled      prometheus.Histogram
	LayoutPasses     *prometheus.CounterVec
	LayoutDuration   prometheus.Histogram
	ExpansionResults *prometheus.CounterVec
	ViewportFetches  *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		FramesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_built_total",
			Help:      "Number of render frames assembled",
		}),
		NodesCulled: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_visible_nodes",
			Help:      "Visible node count per frame",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		EdgesCulled: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_visible_edges",
			Help:      "Visible edge count per frame",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		LayoutPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_passes_total",
			Help:      "Layout passes by kind",
		}, []string{"kind"}),
		LayoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Wall time of layout passes",
			Buckets:   prometheus.DefBuckets,
		}),
		ExpansionResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansions_total",
			Help:      "Graph expansion attempts by outcome",
		}, []string{"outcome"}),
		ViewportFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewport_fetches_total",
			Help:      "Viewport-driven data fetches by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.FramesBuilt,
		m.NodesCulled,
		m.EdgesCulled,
		m.LayoutPasses,
		m.LayoutDuration,
		m.ExpansionResults,
		m.ViewportFetches,
	)
	return m
}

// NewTestMetrics creates metrics on a private registry, for tests
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "canvas_test")
}
