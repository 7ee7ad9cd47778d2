package rows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/dbx"
	"github.com/graintrack/syncengine/internal/models"
)

// SQLiteRepository implements Repository over the synchronized domain tables.
// Table names are interpolated into queries, so every call validates the name
// against the known table set first.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func validTable(table string) error {
	for _, t := range models.TableOrder() {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("unknown table %q", table)
}

func (r *SQLiteRepository) Insert(ctx context.Context, table string, row *models.Row) error {
	if err := validTable(table); err != nil {
		return err
	}
	if row.LocalID == "" {
		row.LocalID = uuid.NewString()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	if row.SyncStatus == "" {
		row.SyncStatus = common.RowPending
	}

	data, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("failed to encode row data: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (local_id, server_id, sync_status, data, updated_at, server_updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`, table)
	_, err = r.db.ExecContext(ctx, query,
		row.LocalID, nullable(row.ServerID), row.SyncStatus, string(data),
		row.UpdatedAt.Format(time.RFC3339Nano), nullableTime(row.ServerUpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, table, localID string, changes map[string]any) error {
	if err := validTable(table); err != nil {
		return err
	}

	row, err := r.GetByLocalID(ctx, table, localID)
	if err != nil {
		return err
	}

	if row.Data == nil {
		row.Data = make(map[string]any, len(changes))
	}
	for k, v := range changes {
		row.Data[k] = v
	}

	data, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("failed to encode row data: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET data = ?, updated_at = ? WHERE local_id = ?`, table)
	_, err = r.db.ExecContext(ctx, query, string(data), time.Now().UTC().Format(time.RFC3339Nano), localID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

func (r *SQLiteRepository) Query(ctx context.Context, table string, limit int) ([]*models.Row, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	query := fmt.Sprintf(`SELECT local_id, server_id, sync_status, data, updated_at, server_updated_at
			FROM %s ORDER BY local_id LIMIT ?`, table)
	sqlRows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer sqlRows.Close()

	var result []*models.Row
	for sqlRows.Next() {
		row, err := scanRow(sqlRows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := sqlRows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, table, localID string) (*models.Row, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT local_id, server_id, sync_status, data, updated_at, server_updated_at
			FROM %s WHERE local_id = ?`, table)
	return r.getOne(ctx, query, localID)
}

func (r *SQLiteRepository) GetByServerID(ctx context.Context, table, serverID string) (*models.Row, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT local_id, server_id, sync_status, data, updated_at, server_updated_at
			FROM %s WHERE server_id = ?`, table)
	return r.getOne(ctx, query, serverID)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*models.Row, error) {
	row, err := scanRow(r.db.QueryRowContext(ctx, query, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select row: %w", err)
	}
	return row, nil
}

func (r *SQLiteRepository) SetServerID(ctx context.Context, table, localID, serverID string) error {
	if err := validTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET server_id = ? WHERE local_id = ?`, table)
	return r.execOne(ctx, query, nullable(serverID), localID)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, table, localID string) error {
	return r.setStatus(ctx, table, localID, common.RowSynced)
}

func (r *SQLiteRepository) MarkPending(ctx context.Context, table, localID string) error {
	return r.setStatus(ctx, table, localID, common.RowPending)
}

func (r *SQLiteRepository) setStatus(ctx context.Context, table, localID, status string) error {
	if err := validTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET sync_status = ? WHERE local_id = ?`, table)
	return r.execOne(ctx, query, status, localID)
}

func (r *SQLiteRepository) ApplyServer(ctx context.Context, table string, row *models.Row) error {
	if err := validTable(table); err != nil {
		return err
	}
	if row.LocalID == "" {
		row.LocalID = uuid.NewString()
	}

	data, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("failed to encode row data: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (local_id, server_id, sync_status, data, updated_at, server_updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(local_id) DO UPDATE SET
				server_id = excluded.server_id,
				sync_status = excluded.sync_status,
				data = excluded.data,
				updated_at = excluded.updated_at,
				server_updated_at = excluded.server_updated_at`, table)
	_, err = r.db.ExecContext(ctx, query,
		row.LocalID, nullable(row.ServerID), common.RowSynced, string(data),
		time.Now().UTC().Format(time.RFC3339Nano), nullableTime(row.ServerUpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to apply server row to %s: %w", table, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, table, localID string) error {
	if err := validTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE local_id = ?`, table)
	return r.execOne(ctx, query, localID)
}

func (r *SQLiteRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec failed: %w", err)
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

func scanRow(scan func(dest ...any) error) (*models.Row, error) {
	var (
		row             models.Row
		serverID        sql.NullString
		data            string
		updatedAt       string
		serverUpdatedAt sql.NullString
	)
	if err := scan(&row.LocalID, &serverID, &row.SyncStatus, &data, &updatedAt, &serverUpdatedAt); err != nil {
		return nil, err
	}
	row.ServerID = serverID.String

	if data != "" {
		if err := json.Unmarshal([]byte(data), &row.Data); err != nil {
			return nil, fmt.Errorf("failed to decode row data: %w", err)
		}
	}

	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	row.UpdatedAt = ts

	if serverUpdatedAt.Valid && serverUpdatedAt.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, serverUpdatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse server_updated_at: %w", err)
		}
		row.ServerUpdatedAt = ts
	}

	return &row, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
