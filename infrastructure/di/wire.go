//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"canvas-engine/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideEngineConfig,
	ProvideRegistry,
	ProvideMetrics,
	ProvideNotifier,
	ProvideLayoutEngine,
	ProvideGraphStore,
	ProvideLODResolver,
	ProvideClusterer,
	ProvideCuller,
	ProvideEdgeGeometry,
	ProvideNavigator,
	ProvideRenderService,
	ProvideGestureCoordinator,
	ProvideExpansionService,
	ProvideViewportLoader,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config, collab Collaborators) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
