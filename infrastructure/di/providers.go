// Package di wires the engine's services together. The container is the
// embedding application's single entry point: it supplies the collaborators
// (persistence sink, AI expander, subtopic source, region fetcher, chrome
// event hooks) and receives the fully connected engine back.
package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"canvas-engine/application/ports"
	"canvas-engine/application/services"
	domainconfig "canvas-engine/domain/config"
	"canvas-engine/domain/services/cluster"
	"canvas-engine/domain/services/edgegeom"
	"canvas-engine/domain/services/layout"
	"canvas-engine/domain/services/lod"
	"canvas-engine/domain/services/viewport"
	"canvas-engine/infrastructure/config"
	"canvas-engine/pkg/notify"
	"canvas-engine/pkg/observability"
)

// Collaborators are the application-supplied implementations of the
// engine's outward-facing ports. Expander, Subtopics and Fetcher may be nil
// for purely local graphs; Sink and Events may be nil to ignore reports.
type Collaborators struct {
	Expander  ports.Expander
	Subtopics ports.SubtopicSource
	Sink      ports.DirtySink
	Fetcher   ports.GraphFetcher
	Events    ports.NavigationEvents
}

// Container holds the wired engine
type Container struct {
	Config    *config.Config
	Engine    *domainconfig.EngineConfig
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Notifier  *notify.Notifier
	Store     *services.GraphStore
	Render    *services.RenderService
	Navigator *services.ScopeNavigator
	Gesture   *services.GestureCoordinator
	Expansion *services.ExpansionService
	Loader    *services.ViewportLoader
}

// ApplyTuning installs a reloaded engine configuration. The shared config
// instance is updated in place so every service sees the new values on its
// next pass.
func (c *Container) ApplyTuning(next *domainconfig.EngineConfig) {
	c.Store.ApplyConfig(next)
}

// ProvideLogger creates the process logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Environment, cfg.LogLevel)
}

// ProvideEngineConfig exposes the engine tunables from the loaded config
func ProvideEngineConfig(cfg *config.Config) *domainconfig.EngineConfig {
	return cfg.Engine
}

// ProvideRegistry creates the metrics registry
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates and registers the engine metrics
func ProvideMetrics(reg *prometheus.Registry, cfg *config.Config) *observability.Metrics {
	return observability.NewMetrics(reg, cfg.MetricsNamespace)
}

// ProvideNotifier creates the transient notification hub
func ProvideNotifier(cfg *config.Config, logger *zap.Logger) *notify.Notifier {
	return notify.NewNotifier(cfg.NotificationTTL, logger)
}

// ProvideLayoutEngine creates the force/tree layout engine
func ProvideLayoutEngine(engine *domainconfig.EngineConfig, logger *zap.Logger) *layout.Engine {
	return layout.NewEngine(engine, logger)
}

// ProvideGraphStore creates the working-set owner
func ProvideGraphStore(
	engine *domainconfig.EngineConfig,
	layoutEngine *layout.Engine,
	collab Collaborators,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *services.GraphStore {
	return services.NewGraphStore(engine, layoutEngine, collab.Sink, notifier, logger)
}

// ProvideLODResolver creates the level-of-detail resolver
func ProvideLODResolver(engine *domainconfig.EngineConfig) *lod.Resolver {
	return lod.NewResolver(engine)
}

// ProvideClusterer creates the zoom-dependent clusterer
func ProvideClusterer(engine *domainconfig.EngineConfig) *cluster.Clusterer {
	return cluster.NewClusterer(engine)
}

// ProvideCuller creates the viewport culler
func ProvideCuller(engine *domainconfig.EngineConfig, logger *zap.Logger) *viewport.Culler {
	return viewport.NewCuller(engine, logger)
}

// ProvideEdgeGeometry creates the connector geometry engine
func ProvideEdgeGeometry(engine *domainconfig.EngineConfig) *edgegeom.Engine {
	return edgegeom.NewEngine(engine)
}

// ProvideNavigator creates the scope navigator
func ProvideNavigator(
	store *services.GraphStore,
	lodResolver *lod.Resolver,
	collab Collaborators,
	logger *zap.Logger,
) *services.ScopeNavigator {
	return services.NewScopeNavigator(store, lodResolver, collab.Events, logger)
}

// ProvideRenderService creates the frame assembler
func ProvideRenderService(
	store *services.GraphStore,
	navigator *services.ScopeNavigator,
	clusterer *cluster.Clusterer,
	lodResolver *lod.Resolver,
	culler *viewport.Culler,
	edgeGeom *edgegeom.Engine,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.RenderService {
	return services.NewRenderService(store, navigator, clusterer, lodResolver, culler, edgeGeom, metrics, logger)
}

// ProvideGestureCoordinator creates the pointer-mode coordinator
func ProvideGestureCoordinator(
	store *services.GraphStore,
	collab Collaborators,
	engine *domainconfig.EngineConfig,
	logger *zap.Logger,
) *services.GestureCoordinator {
	return services.NewGestureCoordinator(store, collab.Events, engine, logger)
}

// ProvideExpansionService creates the expansion orchestrator
func ProvideExpansionService(
	store *services.GraphStore,
	collab Collaborators,
	engine *domainconfig.EngineConfig,
	notifier *notify.Notifier,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.ExpansionService {
	return services.NewExpansionService(store, collab.Expander, collab.Subtopics, engine, notifier, metrics, logger)
}

// ProvideViewportLoader creates the lazy region loader
func ProvideViewportLoader(
	store *services.GraphStore,
	collab Collaborators,
	engine *domainconfig.EngineConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.ViewportLoader {
	return services.NewViewportLoader(store, collab.Fetcher, engine, metrics, logger)
}
