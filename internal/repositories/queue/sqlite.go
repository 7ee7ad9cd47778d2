package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/dbx"
	"github.com/graintrack/syncengine/internal/models"
)

// SQLiteRepository implements Repository over the sync_queue table.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, e *models.QueueEntry) error {
	if !e.Operation.Valid() {
		return fmt.Errorf("invalid operation %q", e.Operation)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `INSERT INTO sync_queue (id, table_name, record_id, operation, payload, retry_count, last_error, dead, enqueued_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	// stored as Unix nanoseconds so ORDER BY enqueued_at is chronological
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Table, e.RecordLocalID, string(e.Operation), string(payload),
		e.RetryCount, e.LastError, boolToInt(e.Dead), e.EnqueuedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to enqueue entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) PendingBatch(ctx context.Context, maxRetries, limit int) ([]*models.QueueEntry, error) {
	query := `SELECT id, table_name, record_id, operation, payload, retry_count, last_error, dead, enqueued_at
			FROM sync_queue
			WHERE dead = 0 AND retry_count < ?
			ORDER BY enqueued_at, id
			LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, entryID, message string, maxRetries int) error {
	query := `UPDATE sync_queue
			SET retry_count = retry_count + 1,
			    last_error = ?,
			    dead = CASE WHEN retry_count + 1 >= ? THEN 1 ELSE dead END
			WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, message, maxRetries, entryID)
	if err != nil {
		return fmt.Errorf("failed to record failure for entry %s: %w", entryID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) RemoveCompleted(ctx context.Context, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(entryIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM sync_queue WHERE id IN (%s)`, placeholders)
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove completed entries: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue`)
	if err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context, maxRetries int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE dead = 0 AND retry_count < ?`, maxRetries).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeadLetters(ctx context.Context) ([]*models.QueueEntry, error) {
	query := `SELECT id, table_name, record_id, operation, payload, retry_count, last_error, dead, enqueued_at
			FROM sync_queue
			WHERE dead = 1
			ORDER BY enqueued_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select dead entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *SQLiteRepository) Revive(ctx context.Context, entryID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET dead = 0, retry_count = 0, last_error = '' WHERE id = ? AND dead = 1`, entryID)
	if err != nil {
		return fmt.Errorf("failed to revive entry %s: %w", entryID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]*models.QueueEntry, error) {
	var result []*models.QueueEntry
	for rows.Next() {
		var (
			e          models.QueueEntry
			op         string
			payload    string
			dead       int
			enqueuedAt int64
		)
		if err := rows.Scan(&e.ID, &e.Table, &e.RecordLocalID, &op, &payload,
			&e.RetryCount, &e.LastError, &dead, &enqueuedAt); err != nil {
			return nil, err
		}
		e.Operation = models.Operation(op)
		e.Dead = dead != 0
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode payload of entry %s: %w", e.ID, err)
			}
		}
		e.EnqueuedAt = time.Unix(0, enqueuedAt).UTC()
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
