package config

import (
	"encoding/json"
	"os"

	"github.com/graintrack/syncengine/internal/flagx"
	"github.com/graintrack/syncengine/internal/models"
	"github.com/graintrack/syncengine/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	ServerBaseURL    string         `json:"server_base_url"`
	DatabaseDSN      string         `json:"database_dsn"`
	BatchSize        int            `json:"batch_size"`
	MaxRetries       int            `json:"max_retries"`
	PeriodicInterval timex.Duration `json:"periodic_interval"`
	DebounceDelay    timex.Duration `json:"debounce_delay"`
	ProbeInterval    timex.Duration `json:"probe_interval"`
	HTTPTimeout      timex.Duration `json:"http_timeout"`
	ConflictStrategy string         `json:"conflict_strategy"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c or -config flags. Absent file means no overlay; zero-valued JSON
// fields leave the current value untouched.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.BatchSize > 0 {
		cfg.BatchSize = jc.BatchSize
	}
	if jc.MaxRetries > 0 {
		cfg.MaxRetries = jc.MaxRetries
	}
	if jc.PeriodicInterval.Duration > 0 {
		cfg.PeriodicInterval = jc.PeriodicInterval.Duration
	}
	if jc.DebounceDelay.Duration > 0 {
		cfg.DebounceDelay = jc.DebounceDelay.Duration
	}
	if jc.ProbeInterval.Duration > 0 {
		cfg.ProbeInterval = jc.ProbeInterval.Duration
	}
	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.ConflictStrategy != "" {
		cfg.ConflictStrategy = models.ResolutionStrategy(jc.ConflictStrategy)
	}
}
