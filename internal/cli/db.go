package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/dbx"
	"github.com/graintrack/syncengine/internal/migrations"
	"github.com/graintrack/syncengine/internal/repositories/metadata"
	"github.com/graintrack/syncengine/internal/repositories/queue"
	"github.com/graintrack/syncengine/internal/repositories/rows"
)

// Repositories bundles the local-store collaborators built over one database.
type Repositories struct {
	Queue    queue.Repository
	Rows     rows.Repository
	Metadata metadata.Repository
	DB       *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	repos := &Repositories{
		Queue:    queue.NewSQLiteRepository(db),
		Rows:     rows.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
		DB:       db,
	}

	if err := ensureDeviceID(ctx, repos.Metadata); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repos, nil
}

// ResetLocalState discards the queue and every metadata key in a single
// transaction, so an interrupted reset never leaves the watermark pointing
// past discarded work. The device id is re-seeded afterwards.
func ResetLocalState(ctx context.Context, r *Repositories) error {
	err := dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := queue.NewSQLiteRepository(tx).ClearAll(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Clear(ctx)
	})
	if err != nil {
		return err
	}
	return ensureDeviceID(ctx, r.Metadata)
}

// ensureDeviceID assigns this installation a stable identifier on first run.
func ensureDeviceID(ctx context.Context, meta metadata.Repository) error {
	existing, err := meta.Get(ctx, common.DeviceIDKey)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return meta.Set(ctx, common.DeviceIDKey, []byte(uuid.NewString()))
}
