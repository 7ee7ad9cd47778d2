package config

import (
	"time"

	"github.com/graintrack/syncengine/internal/models"
)

// Config holds runtime settings for the sync engine.
//
// Fields:
//   - ServerBaseURL: scheme://host:port of the backend REST API.
//   - DatabaseDSN: SQLite DSN of the local store.
//   - BatchSize: maximum queue entries drained per push.
//   - MaxRetries: retry ceiling per queue entry before dead-lettering.
//   - PeriodicInterval: how often the background timer attempts a sync.
//   - DebounceDelay: quiet period after AddToQueue before the automatic sync.
//   - ProbeInterval: how often the connectivity monitor probes the backend.
//   - HTTPTimeout: per-call transport timeout.
//   - ConflictStrategy: default resolution policy for detected conflicts.
type Config struct {
	ServerBaseURL    string
	DatabaseDSN      string
	BatchSize        int
	MaxRetries       int
	PeriodicInterval time.Duration
	DebounceDelay    time.Duration
	ProbeInterval    time.Duration
	HTTPTimeout      time.Duration
	ConflictStrategy models.ResolutionStrategy
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = "graintrack.db"
	c.BatchSize = 50
	c.MaxRetries = 3
	c.PeriodicInterval = 5 * time.Minute
	c.DebounceDelay = 2 * time.Second
	c.ProbeInterval = 30 * time.Second
	c.HTTPTimeout = 30 * time.Second
	c.ConflictStrategy = models.ResolutionMerge
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
