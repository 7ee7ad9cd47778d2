package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintrack/syncengine/internal/models"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"syncctl"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerBaseURL)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.PeriodicInterval)
	assert.Equal(t, models.ResolutionMerge, cfg.ConflictStrategy)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_base_url": "https://api.graintrack.example",
		"batch_size": 10,
		"periodic_interval": "90s",
		"conflict_strategy": "keep_server"
	}`), 0o600))

	withArgs(t, "-c", path)

	cfg := LoadConfig()
	assert.Equal(t, "https://api.graintrack.example", cfg.ServerBaseURL)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 90*time.Second, cfg.PeriodicInterval)
	assert.Equal(t, models.ResolutionKeepServer, cfg.ConflictStrategy)
	// untouched fields keep their defaults
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.DebounceDelay)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"batch_size": 10, "periodic_interval": "90s"}`), 0o600))

	withArgs(t, "-c", path, "-b", "25", "-i", "60")

	cfg := LoadConfig()
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, time.Minute, cfg.PeriodicInterval)
}

func TestLoadConfig_NoSourcesUsesDefaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()
	assert.Equal(t, "graintrack.db", cfg.DatabaseDSN)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}
