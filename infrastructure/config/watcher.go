package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domainconfig "canvas-engine/domain/config"
)

// Watcher hot-reloads the tuning overlay file. On every change the overlay
// is re-applied over the original defaults and the result is handed to the
// callback; a file that fails to parse or validate keeps the previous
// configuration in effect.
type Watcher struct {
	path     string
	base     domainconfig.EngineConfig
	onChange func(*domainconfig.EngineConfig)
	logger   *zap.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher creates a watcher over the tuning file. The callback runs on
// the watcher goroutine; it must hand off to the engine's own scheduling.
func NewWatcher(path string, base *domainconfig.EngineConfig, onChange func(*domainconfig.EngineConfig), logger *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(path); err != nil {
		fs.Close()
		return nil, err
	}
	return &Watcher{
		path:     path,
		base:     *base,
		onChange: onChange,
		logger:   logger,
		fs:       fs,
	}, nil
}

// Run watches until the context is canceled
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("tuning watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	engine, err := LoadTuning(w.path, &w.base)
	if err != nil {
		w.logger.Warn("tuning reload rejected, keeping previous configuration",
			zap.String("file", w.path),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("tuning reloaded", zap.String("file", w.path))
	w.onChange(engine)
}
