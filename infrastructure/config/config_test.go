package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconfig "canvas-engine/domain/config"
	"canvas-engine/infrastructure/config"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8*time.Second, cfg.NotificationTTL)
	assert.NotNil(t, cfg.Engine)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("NOTIFICATION_TTL_SECONDS", "3")

	cfg, err := config.LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3*time.Second, cfg.NotificationTTL)
}

func TestLoadTuning_OverlaysOnlySetFields(t *testing.T) {
	path := writeTuning(t, "cluster_pixel_radius: 120\ndelete_grace_seconds: 10\n")
	base := domainconfig.DefaultEngineConfig()

	engine, err := config.LoadTuning(path, base)

	require.NoError(t, err)
	assert.Equal(t, 120.0, engine.ClusterPixelRadius)
	assert.Equal(t, 10*time.Second, engine.DeleteGraceWindow)
	// Untouched fields keep their defaults, and the base is not mutated.
	assert.Equal(t, base.DefaultNodeWidth, engine.DefaultNodeWidth)
	assert.Equal(t, domainconfig.DefaultEngineConfig().ClusterPixelRadius, base.ClusterPixelRadius)
}

func TestLoadTuning_RejectsInvalidResult(t *testing.T) {
	// cluster_zoom above title_zoom breaks the tier ordering
	path := writeTuning(t, "cluster_zoom: 0.9\n")

	_, err := config.LoadTuning(path, domainconfig.DefaultEngineConfig())

	assert.Error(t, err)
}

func TestLoadTuning_RejectsMalformedYAML(t *testing.T) {
	path := writeTuning(t, "cluster_zoom: [not a number\n")

	_, err := config.LoadTuning(path, domainconfig.DefaultEngineConfig())

	assert.Error(t, err)
}

func TestLoadTuning_MissingFile(t *testing.T) {
	_, err := config.LoadTuning(filepath.Join(t.TempDir(), "absent.yaml"), domainconfig.DefaultEngineConfig())

	assert.Error(t, err)
}
