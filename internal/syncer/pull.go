package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/models"
	"github.com/graintrack/syncengine/internal/transport"
)

// pull fetches server-side changes since the last completed cycle and applies
// them table by table in dependency order. Records that collide with pending
// local edits are handed to the resolver instead of being applied; every
// other record overwrites the local copy.
func (e *Engine) pull(ctx context.Context, since *time.Time, result *models.SyncResult) error {
	deltas, err := e.transport.Pull(ctx, since)
	if err != nil {
		if ctx.Err() != nil {
			return common.ErrSyncCancelled
		}
		return err
	}

	for _, table := range models.TableOrder() {
		for i := range deltas[table] {
			if ctx.Err() != nil {
				return common.ErrSyncCancelled
			}

			record := &deltas[table][i]
			applied, err := e.applyRecord(ctx, table, record)
			if err != nil {
				ie := models.ItemError{
					Table:    table,
					RecordID: record.ID,
					Message:  err.Error(),
				}
				result.Errors = append(result.Errors, ie)
				result.FailedCount++
				e.emitItemError(ie)
				e.log.Warn(ctx, "pull item failed",
					"table", table, "record", record.ID, "error", err.Error())
				continue
			}
			if applied {
				result.PulledCount++
			}
		}
		delete(deltas, table)
	}

	for table, records := range deltas {
		e.log.Warn(ctx, "server sent records for an unknown table",
			"table", table, "count", len(records))
	}

	return nil
}

// applyRecord merges one incoming server record into the local store. It
// reports whether the record was actually written; a record handed to the
// resolver is deferred, not applied.
func (e *Engine) applyRecord(ctx context.Context, table string, record *transport.ServerRecord) (bool, error) {
	local, err := e.rows.GetByServerID(ctx, table, record.ID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return false, err
		}
		// first sighting of this record, insert under a fresh local key
		err := e.rows.ApplyServer(ctx, table, &models.Row{
			LocalID:         uuid.NewString(),
			ServerID:        record.ID,
			Data:            record.Fields,
			ServerUpdatedAt: record.UpdatedAt,
		})
		return err == nil, err
	}

	if local.SyncStatus == common.RowPending {
		conflict, err := e.resolver.Detect(ctx, table, local.LocalID, record.ID, record.Fields, record.UpdatedAt)
		if err != nil {
			return false, err
		}
		if conflict != nil {
			// leave the local row untouched until the resolver settles it
			e.setStatus(func(s *models.SyncStatus) { s.ConflictCount++ })
			e.emitConflict(conflict)
			return false, nil
		}
	}

	err = e.rows.ApplyServer(ctx, table, &models.Row{
		LocalID:         local.LocalID,
		ServerID:        record.ID,
		Data:            record.Fields,
		ServerUpdatedAt: record.UpdatedAt,
	})
	return err == nil, err
}
