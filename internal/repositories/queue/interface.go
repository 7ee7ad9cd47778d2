package queue

import (
	"context"

	"github.com/graintrack/syncengine/internal/models"
)

// Repository is the persisted, ordered log of local mutations not yet
// acknowledged by the server. Implementations are backed by the local SQLite
// database.
//
// No coalescing is performed: two updates queued for the same record before a
// sync are both kept and pushed in enqueue order.
type Repository interface {
	// Enqueue appends an entry. A missing ID or EnqueuedAt is filled in.
	Enqueue(ctx context.Context, entry *models.QueueEntry) error

	// PendingBatch returns up to limit live entries whose retry count is below
	// maxRetries, in enqueue order.
	PendingBatch(ctx context.Context, maxRetries, limit int) ([]*models.QueueEntry, error)

	// RecordFailure increments the entry's retry count and stores the error
	// message. When the count reaches maxRetries the entry is dead-lettered in
	// the same update. The entry is never removed here.
	RecordFailure(ctx context.Context, entryID, message string, maxRetries int) error

	// RemoveCompleted deletes entries whose push the server acknowledged.
	RemoveCompleted(ctx context.Context, entryIDs []string) error

	// ClearAll discards every entry, dead or live. Used by forced full resync;
	// unsynced local work is lost.
	ClearAll(ctx context.Context) error

	// CountPending returns the number of live entries under the retry ceiling.
	CountPending(ctx context.Context, maxRetries int) (int, error)

	// DeadLetters returns entries that exhausted their retries, in enqueue order.
	DeadLetters(ctx context.Context) ([]*models.QueueEntry, error)

	// Revive resets a dead entry's retry count so it re-enters push batches.
	Revive(ctx context.Context, entryID string) error
}
