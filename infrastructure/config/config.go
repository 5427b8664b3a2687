// Package config loads the engine's runtime configuration: environment
// variables for process-level settings, plus an optional YAML tuning file
// overlaying the engine defaults. The tuning file can be hot-reloaded, see
// Watcher.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "canvas-engine/domain/config"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string

	// MetricsNamespace prefixes every exported metric
	MetricsNamespace string

	// TuningFile is an optional YAML file overlaying engine defaults
	TuningFile string

	// NotificationTTL bounds how long transient notifications stay visible
	NotificationTTL time.Duration

	Engine *domainconfig.EngineConfig
}

// Tuning is the YAML shape of the overlay file. Every field is optional;
// zero values leave the engine default untouched.
type Tuning struct {
	DefaultNodeWidth   float64 `yaml:"default_node_width"`
	DefaultNodeHeight  float64 `yaml:"default_node_height"`
	MinNodeWidth       float64 `yaml:"min_node_width"`
	MinNodeHeight      float64 `yaml:"min_node_height"`
	ShiftZoom          float64 `yaml:"shift_zoom"`
	ClusterZoom        float64 `yaml:"cluster_zoom"`
	TitleZoom          float64 `yaml:"title_zoom"`
	ClusterPixelRadius float64 `yaml:"cluster_pixel_radius"`
	LayoutIterations   int     `yaml:"layout_iterations"`
	LinkDistance       float64 `yaml:"link_distance"`
	MaxExpansionNodes  int     `yaml:"max_expansion_nodes"`
	MaxExpansionDepth  int     `yaml:"max_expansion_depth"`
	DeleteGraceSeconds int     `yaml:"delete_grace_seconds"`
	ViewportQuantum    float64 `yaml:"viewport_quantum"`
}

// LoadConfig loads configuration from environment variables and, when
// present, the tuning overlay file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "canvas"),
		TuningFile:       getEnv("ENGINE_TUNING_FILE", ""),
		NotificationTTL:  time.Duration(getEnvInt("NOTIFICATION_TTL_SECONDS", 8)) * time.Second,
		Engine:           domainconfig.DefaultEngineConfig(),
	}

	if cfg.TuningFile != "" {
		engine, err := LoadTuning(cfg.TuningFile, cfg.Engine)
		if err != nil {
			return nil, err
		}
		cfg.Engine = engine
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// LoadTuning reads the overlay file and applies it over the base engine
// configuration, returning a new configuration. The base is not mutated.
func LoadTuning(path string, base *domainconfig.EngineConfig) (*domainconfig.EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tuning file %s: %w", path, err)
	}

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing tuning file %s: %w", path, err)
	}

	engine := *base
	applyTuning(&engine, &t)
	if err := engine.Validate(); err != nil {
		return nil, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return &engine, nil
}

func applyTuning(engine *domainconfig.EngineConfig, t *Tuning) {
	if t.DefaultNodeWidth > 0 {
		engine.DefaultNodeWidth = t.DefaultNodeWidth
	}
	if t.DefaultNodeHeight > 0 {
		engine.DefaultNodeHeight = t.DefaultNodeHeight
	}
	if t.MinNodeWidth > 0 {
		engine.MinNodeWidth = t.MinNodeWidth
	}
	if t.MinNodeHeight > 0 {
		engine.MinNodeHeight = t.MinNodeHeight
	}
	if t.ShiftZoom > 0 {
		engine.ShiftZoom = t.ShiftZoom
	}
	if t.ClusterZoom > 0 {
		engine.ClusterZoom = t.ClusterZoom
	}
	if t.TitleZoom > 0 {
		engine.TitleZoom = t.TitleZoom
	}
	if t.ClusterPixelRadius > 0 {
		engine.ClusterPixelRadius = t.ClusterPixelRadius
	}
	if t.LayoutIterations > 0 {
		engine.LayoutIterations = t.LayoutIterations
	}
	if t.LinkDistance > 0 {
		engine.LinkDistance = t.LinkDistance
	}
	if t.MaxExpansionNodes > 0 {
		engine.MaxExpansionNodes = t.MaxExpansionNodes
	}
	if t.MaxExpansionDepth > 0 {
		engine.MaxExpansionDepth = t.MaxExpansionDepth
	}
	if t.DeleteGraceSeconds > 0 {
		engine.DeleteGraceWindow = time.Duration(t.DeleteGraceSeconds) * time.Second
	}
	if t.ViewportQuantum > 0 {
		engine.ViewportQuantum = t.ViewportQuantum
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Engine == nil {
		return fmt.Errorf("engine configuration is required")
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("notification TTL must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
