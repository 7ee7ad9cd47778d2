package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/models"
)

// push drains one batch of the queue. Tables are processed in dependency
// order; within a table entries run sequentially in enqueue order. A single
// entry's failure increments its retry count and moves on; only cancellation
// and queue-store failures abort the phase.
func (e *Engine) push(ctx context.Context, result *models.SyncResult) error {
	batch, err := e.queue.PendingBatch(ctx, e.opts.MaxRetries, e.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to load push batch: %w", err)
	}

	byTable := make(map[string][]*models.QueueEntry, len(batch))
	for _, entry := range batch {
		byTable[entry.Table] = append(byTable[entry.Table], entry)
	}

	var completed []string
	defer func() {
		// acknowledged entries leave the queue even when the phase aborts
		if len(completed) > 0 {
			if err := e.queue.RemoveCompleted(context.WithoutCancel(ctx), completed); err != nil {
				e.log.Error(ctx, "failed to remove completed entries", "error", err.Error())
			}
		}
	}()

	for _, table := range models.TableOrder() {
		for _, entry := range byTable[table] {
			if ctx.Err() != nil {
				return common.ErrSyncCancelled
			}

			if err := e.pushEntry(ctx, entry); err != nil {
				if ctx.Err() != nil {
					// the call lost to cancellation, not to the server
					return common.ErrSyncCancelled
				}
				e.recordPushFailure(ctx, entry, err, result)
				continue
			}

			completed = append(completed, entry.ID)
			result.PushedCount++
			e.setStatus(func(s *models.SyncStatus) { s.SyncedCount++ })
		}
		delete(byTable, table)
	}

	// entries for tables outside the dependency order can never be pushed
	for _, entries := range byTable {
		for _, entry := range entries {
			e.recordPushFailure(ctx, entry,
				fmt.Errorf("table %q is not synchronized: %w", entry.Table, errUnknownTable), result)
		}
	}

	return nil
}

var errUnknownTable = errors.New("unknown table")

func (e *Engine) pushEntry(ctx context.Context, entry *models.QueueEntry) error {
	switch entry.Operation {
	case models.OpCreate:
		return e.pushCreate(ctx, entry)
	case models.OpUpdate:
		return e.pushUpdate(ctx, entry)
	case models.OpDelete:
		return e.pushDelete(ctx, entry)
	default:
		return fmt.Errorf("unknown operation %q", entry.Operation)
	}
}

func (e *Engine) pushCreate(ctx context.Context, entry *models.QueueEntry) error {
	serverID, err := e.transport.CreateRecord(ctx, entry.Table, entry.Payload)
	if err != nil {
		return err
	}

	// the local row may already be gone (deleted while queued); the create
	// itself still succeeded
	if err := e.rows.SetServerID(ctx, entry.Table, entry.RecordLocalID, serverID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	return e.rows.MarkSynced(ctx, entry.Table, entry.RecordLocalID)
}

func (e *Engine) pushUpdate(ctx context.Context, entry *models.QueueEntry) error {
	row, err := e.rows.GetByLocalID(ctx, entry.Table, entry.RecordLocalID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("update of vanished record %s/%s: %w",
				entry.Table, entry.RecordLocalID, common.ErrMissingServerID)
		}
		return err
	}
	if !row.HasServerID() {
		return fmt.Errorf("update before create was acknowledged for %s/%s: %w",
			entry.Table, entry.RecordLocalID, common.ErrMissingServerID)
	}

	if err := e.transport.UpdateRecord(ctx, entry.Table, row.ServerID, entry.Payload); err != nil {
		return err
	}
	return e.rows.MarkSynced(ctx, entry.Table, entry.RecordLocalID)
}

func (e *Engine) pushDelete(ctx context.Context, entry *models.QueueEntry) error {
	serverID := e.deleteServerID(ctx, entry)
	if serverID == "" {
		// never existed remotely; consuming the entry is the whole job
		return e.deleteLocalRow(ctx, entry)
	}

	// a 404 is already mapped to success by the transport
	if err := e.transport.DeleteRecord(ctx, entry.Table, serverID); err != nil {
		return err
	}
	return e.deleteLocalRow(ctx, entry)
}

// deleteServerID resolves the server identifier for a queued delete: from the
// still-present local row if any, otherwise from the payload snapshot taken
// when the record was deleted locally.
func (e *Engine) deleteServerID(ctx context.Context, entry *models.QueueEntry) string {
	row, err := e.rows.GetByLocalID(ctx, entry.Table, entry.RecordLocalID)
	if err == nil && row.HasServerID() {
		return row.ServerID
	}
	if sid, ok := entry.Payload["server_id"].(string); ok {
		return sid
	}
	return ""
}

func (e *Engine) deleteLocalRow(ctx context.Context, entry *models.QueueEntry) error {
	err := e.rows.Delete(ctx, entry.Table, entry.RecordLocalID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return nil
}

func (e *Engine) recordPushFailure(ctx context.Context, entry *models.QueueEntry, cause error, result *models.SyncResult) {
	maxRetries := e.opts.MaxRetries
	if errors.Is(cause, common.ErrMissingServerID) || errors.Is(cause, errUnknownTable) {
		// logic error: retrying can never succeed, dead-letter at once
		maxRetries = 0
	}
	if err := e.queue.RecordFailure(ctx, entry.ID, cause.Error(), maxRetries); err != nil {
		e.log.Error(ctx, "failed to record push failure", "entry", entry.ID, "error", err.Error())
	}

	ie := models.ItemError{
		Table:     entry.Table,
		RecordID:  entry.RecordLocalID,
		Operation: entry.Operation,
		Message:   cause.Error(),
	}
	result.Errors = append(result.Errors, ie)
	result.FailedCount++
	e.emitItemError(ie)
	e.log.Warn(ctx, "push item failed",
		"table", entry.Table, "record", entry.RecordLocalID,
		"operation", string(entry.Operation), "error", cause.Error())
}
