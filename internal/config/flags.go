package config

import (
	"flag"
	"os"
	"time"

	"github.com/graintrack/syncengine/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-d string   SQLite DSN of the local store
//	-b int      push batch size
//	-r int      retry ceiling per queue entry
//	-i int      periodic sync interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-b", "-r", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the backend server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite DSN of the local store")
	fs.IntVar(&cfg.BatchSize, "b", cfg.BatchSize, "push batch size")
	fs.IntVar(&cfg.MaxRetries, "r", cfg.MaxRetries, "retry ceiling per queue entry")
	periodicInterval := fs.Int("i", int(cfg.PeriodicInterval.Seconds()), "periodic sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PeriodicInterval = time.Duration(*periodicInterval) * time.Second
}
