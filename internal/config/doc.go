// Package config loads runtime configuration for the sync engine.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://api.graintrack.example",
//	  "database_dsn": "graintrack.db",
//	  "batch_size": 50,
//	  "max_retries": 3,
//	  "periodic_interval": "5m",
//	  "debounce_delay": "2s",
//	  "probe_interval": "30s",
//	  "http_timeout": "30s",
//	  "conflict_strategy": "merge"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
