package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"canvas-engine/application/ports"
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/validators"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/pkg/observability"
)

// ViewportLoader lazily fetches graph regions as the viewport moves over a
// server-backed graph. Pan/zoom bursts are debounced, regions are quantized
// so jitter around the same area never refetches, and a newer viewport
// cancels the fetch it superseded.
type ViewportLoader struct {
	store     *GraphStore
	fetcher   ports.GraphFetcher
	cfg       *config.EngineConfig
	nodeRules *validators.NodeValidator
	edgeRules *validators.EdgeValidator
	metrics   *observability.Metrics
	logger    *zap.Logger

	debounced func(func())

	mu        sync.Mutex
	lastKey   string
	lastFetch time.Time
	cancel    context.CancelFunc
}

// NewViewportLoader creates a loader over the fetcher. A nil fetcher makes
// every viewport change a no-op, for purely local graphs.
func NewViewportLoader(
	store *GraphStore,
	fetcher ports.GraphFetcher,
	cfg *config.EngineConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ViewportLoader {
	return &ViewportLoader{
		store:     store,
		fetcher:   fetcher,
		cfg:       cfg,
		nodeRules: validators.NewNodeValidator(cfg),
		edgeRules: validators.NewEdgeValidator(),
		metrics:   metrics,
		logger:    logger,
		debounced: debounce.New(cfg.ViewportFetchDebounce),
	}
}

// ViewportChanged notifies the loader that the viewport moved. The actual
// fetch decision runs after the debounce window settles.
func (l *ViewportLoader) ViewportChanged(screenWidth, screenHeight float64) {
	if l.fetcher == nil {
		return
	}
	l.debounced(func() {
		l.maybeFetch(screenWidth, screenHeight)
	})
}

// maybeFetch applies the skip rules, then launches the fetch
func (l *ViewportLoader) maybeFetch(screenWidth, screenHeight float64) {
	transform := l.store.Transform()
	scope := l.store.Scope()
	region := l.quantizedRegion(transform.VisibleWorldRect(screenWidth, screenHeight))
	key := regionKey(scope, region)

	l.mu.Lock()
	if key == l.lastKey {
		l.mu.Unlock()
		l.metrics.ViewportFetches.WithLabelValues("unchanged").Inc()
		return
	}
	if time.Since(l.lastFetch) < l.cfg.ViewportFetchMinGap {
		l.mu.Unlock()
		l.metrics.ViewportFetches.WithLabelValues("throttled").Inc()
		return
	}
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.lastKey = key
	l.lastFetch = time.Now()
	l.mu.Unlock()

	go l.fetch(ctx, scope, region, key)
}

func (l *ViewportLoader) fetch(ctx context.Context, scope valueobjects.ScopeID, region valueobjects.Rect, key string) {
	nodes, edges, err := l.fetcher.FetchRegion(ctx, scope, region)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded by a newer viewport; the replacement fetch covers it.
			l.metrics.ViewportFetches.WithLabelValues("superseded").Inc()
			return
		}
		// Forget the region so the next viewport change retries it; a newer
		// key may have been committed in the meantime and must stand.
		l.mu.Lock()
		if l.lastKey == key {
			l.lastKey = ""
		}
		l.mu.Unlock()
		l.metrics.ViewportFetches.WithLabelValues("error").Inc()
		l.logger.Warn("viewport fetch failed",
			zap.String("scope", scope.String()),
			zap.Error(err),
		)
		return
	}

	l.merge(nodes, edges)
	l.metrics.ViewportFetches.WithLabelValues("ok").Inc()
	l.logger.Debug("viewport region loaded",
		zap.String("scope", scope.String()),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
}

// merge folds fetched entities into the working set after normalization.
// Nodes already present keep their local revisions — an in-flight edit
// always wins over a fetch. Unrepairable entities are dropped, not fatal.
func (l *ViewportLoader) merge(nodes []*entities.Node, edges []*entities.Edge) {
	if len(nodes) > 0 {
		l.store.SetNodes(func(prev []*entities.Node) []*entities.Node {
			present := make(map[string]bool, len(prev))
			for _, n := range prev {
				present[n.ID.String()] = true
			}
			next := append([]*entities.Node(nil), prev...)
			for _, n := range nodes {
				if n == nil || present[n.ID.String()] {
					continue
				}
				if err := l.nodeRules.Normalize(n); err != nil {
					l.logger.Debug("fetched node dropped", zap.Error(err))
					continue
				}
				next = append(next, n)
			}
			return next
		})
	}

	if len(edges) > 0 {
		l.store.SetEdges(func(prev []*entities.Edge) []*entities.Edge {
			next := append([]*entities.Edge(nil), prev...)
			for _, e := range edges {
				if l.edgeRules.Validate(e) != nil {
					continue
				}
				dup := false
				for _, existing := range next {
					if existing.SamePair(e) {
						dup = true
						break
					}
				}
				if !dup {
					next = append(next, e)
				}
			}
			return next
		})
	}
}

// quantizedRegion snaps the visible rect outward to quantum boundaries so
// nearby viewports share a fetch key.
func (l *ViewportLoader) quantizedRegion(visible valueobjects.Rect) valueobjects.Rect {
	q := l.cfg.ViewportQuantum
	minX := math.Floor(visible.MinX/q) * q
	minY := math.Floor(visible.MinY/q) * q
	maxX := math.Ceil(visible.MaxX/q) * q
	maxY := math.Ceil(visible.MaxY/q) * q
	return valueobjects.NewRect(minX, minY, maxX-minX, maxY-minY)
}

func regionKey(scope valueobjects.ScopeID, region valueobjects.Rect) string {
	return fmt.Sprintf("%s|%.0f,%.0f,%.0f,%.0f", scope.String(), region.MinX, region.MinY, region.MaxX, region.MaxY)
}

// Reset clears the fetch memory, forcing the next viewport change to fetch.
// Called on scope switches.
func (l *ViewportLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastKey = ""
	l.lastFetch = time.Time{}
}
