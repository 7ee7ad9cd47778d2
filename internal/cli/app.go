package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/graintrack/syncengine/internal/config"
	"github.com/graintrack/syncengine/internal/conflict"
	"github.com/graintrack/syncengine/internal/logging"
	"github.com/graintrack/syncengine/internal/netx"
	"github.com/graintrack/syncengine/internal/syncer"
	"github.com/graintrack/syncengine/internal/transport"

	_ "modernc.org/sqlite"
)

// App is the interactive shell around the sync engine. It owns the wiring of
// the local store, the transport, the connectivity monitor, and the engine.
type App struct {
	config   *config.Config
	log      logging.Logger
	repos    *Repositories
	engine   *syncer.Engine
	resolver *conflict.Resolver
	monitor  *netx.Monitor
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	repos, err := InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	client := transport.NewHTTPClient(c.ServerBaseURL, c.HTTPTimeout, tokenFromEnv, log)
	monitor := netx.NewMonitor(client, c.ProbeInterval, log)
	resolver := conflict.NewResolver(repos.Rows, repos.Queue, c.ConflictStrategy, log)

	engine := syncer.New(syncer.Options{
		BatchSize:     c.BatchSize,
		MaxRetries:    c.MaxRetries,
		DebounceDelay: c.DebounceDelay,
	}, repos.Queue, repos.Rows, repos.Metadata, client, monitor, resolver, log)

	return &App{
		config:   c,
		log:      log,
		repos:    repos,
		engine:   engine,
		resolver: resolver,
		monitor:  monitor,
	}, nil
}

// tokenFromEnv supplies the bearer token. Token refresh is owned by whatever
// populates the environment, not by the engine.
func tokenFromEnv(context.Context) (string, error) {
	return os.Getenv("SYNC_TOKEN"), nil
}

func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.repos.DB.Close() }()

	go a.monitor.Start(ctx)
	go a.engine.WatchConnectivity(ctx)
	a.engine.StartPeriodicSync(ctx, a.config.PeriodicInterval)
	defer a.engine.StopPeriodicSync()

	a.Root(ctx)
}
