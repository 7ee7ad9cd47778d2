package rows

import (
	"context"

	"github.com/graintrack/syncengine/internal/models"
)

// Repository is the generic row storage the engine consumes. Every
// synchronized table shares one physical shape: local surrogate key, optional
// server identifier, sync-status column, and the domain fields as a JSON
// document. The engine never interprets domain fields.
type Repository interface {
	// Insert stores a new row. A missing LocalID or UpdatedAt is filled in.
	Insert(ctx context.Context, table string, row *models.Row) error

	// Update merges changes into the row's data document and refreshes
	// UpdatedAt. The sync status is left untouched.
	Update(ctx context.Context, table, localID string, changes map[string]any) error

	// Query returns up to limit rows in local-id order; limit <= 0 means all.
	Query(ctx context.Context, table string, limit int) ([]*models.Row, error)

	// GetByLocalID returns a row by its local surrogate key, or
	// common.ErrNotFound.
	GetByLocalID(ctx context.Context, table, localID string) (*models.Row, error)

	// GetByServerID returns a row by its server identifier, or
	// common.ErrNotFound.
	GetByServerID(ctx context.Context, table, serverID string) (*models.Row, error)

	// SetServerID stores the server-assigned identifier after a create push is
	// acknowledged. An empty serverID clears the column.
	SetServerID(ctx context.Context, table, localID, serverID string) error

	// MarkSynced flips the row's sync status to "synced".
	MarkSynced(ctx context.Context, table, localID string) error

	// MarkPending flips the row's sync status to "pending local changes".
	MarkPending(ctx context.Context, table, localID string) error

	// ApplyServer overwrites (or inserts) the local row with an incoming
	// server version and marks it synced. Used by pull for clean records.
	ApplyServer(ctx context.Context, table string, row *models.Row) error

	// Delete removes a row by its local surrogate key.
	Delete(ctx context.Context, table, localID string) error
}
