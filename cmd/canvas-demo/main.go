// canvas-demo wires the engine with no-op collaborators, seeds a small
// graph and renders frames across the zoom range, logging what each frame
// resolves to. Useful for eyeballing clustering and level-of-detail
// behavior after tuning changes.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"canvas-engine/application/services"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/layout"
	"canvas-engine/infrastructure/config"
	"canvas-engine/infrastructure/di"
)

const (
	screenWidth  = 1920.0
	screenHeight = 1080.0
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(cfg, di.Collaborators{})
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	if cfg.TuningFile != "" {
		watcher, err := config.NewWatcher(cfg.TuningFile, cfg.Engine, container.ApplyTuning, logger)
		if err != nil {
			logger.Warn("tuning watcher unavailable", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	seed(container.Store, cfg)
	container.Navigator.SetViewportSize(screenWidth, screenHeight)
	container.Store.RunFullLayout(layout.KindForce)

	for _, zoom := range []float64{1.0, 0.4, 0.08} {
		t := container.Store.Transform()
		t.K = zoom
		container.Store.SetTransform(t)

		frame := container.Render.BuildFrame(screenWidth, screenHeight)
		logger.Info("frame",
			zap.Float64("zoom", zoom),
			zap.String("tier", frame.Tier.String()),
			zap.Int("nodes", len(frame.Nodes)),
			zap.Int("edges", len(frame.Edges)),
		)
	}

	logger.Info("demo running, ctrl-c to exit")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
}

// seed builds a small star graph in the root scope
func seed(store *services.GraphStore, cfg *config.Config) {
	root := valueobjects.RootScope()

	hub, err := entities.NewNode(entities.TypeNote, root, 0, 0, cfg.Engine.DefaultNodeWidth, cfg.Engine.DefaultNodeHeight)
	if err != nil {
		log.Fatalf("Failed to seed graph: %v", err)
	}
	hub.UpdateContent(valueobjects.NewNodeContent("Distributed Systems", "", nil))
	store.AddNode(hub)

	topics := []string{"Consensus", "Replication", "Sharding", "Clocks", "Gossip Protocols"}
	for i, topic := range topics {
		n, err := entities.NewNode(entities.TypeNote, root,
			float64(i)*40, float64(i)*40,
			cfg.Engine.DefaultNodeWidth, cfg.Engine.CompactNodeHeight)
		if err != nil {
			continue
		}
		n.UpdateContent(valueobjects.NewNodeContent(topic, "", nil))
		store.AddNode(n)

		if edge, err := entities.NewEdge(hub.ID, n.ID, "covers", root); err == nil {
			_ = store.AddEdge(edge)
		}
	}
}
