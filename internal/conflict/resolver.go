// Package conflict detects field-level divergence between incoming server
// records and locally modified rows, and settles each divergence with a
// configurable resolution strategy.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/logging"
	"github.com/graintrack/syncengine/internal/models"
	"github.com/graintrack/syncengine/internal/repositories/queue"
	"github.com/graintrack/syncengine/internal/repositories/rows"
)

// DefaultStrategy is applied when no strategy is configured. Merge keeps the
// most recently modified side of every differing field, so neither device
// silently loses its edits.
const DefaultStrategy = models.ResolutionMerge

// Resolver owns the set of open conflicts for the engine. Detection happens
// during pull; resolution runs as its own cycle phase. One conflict's failure
// never blocks the others.
type Resolver struct {
	rows     rows.Repository
	queue    queue.Repository
	strategy models.ResolutionStrategy
	log      logging.Logger

	mu        sync.Mutex
	conflicts []*models.Conflict
	resolved  int
}

// NewResolver builds a Resolver. An empty strategy falls back to
// DefaultStrategy.
func NewResolver(rowRepo rows.Repository, queueRepo queue.Repository, strategy models.ResolutionStrategy, log logging.Logger) *Resolver {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	return &Resolver{rows: rowRepo, queue: queueRepo, strategy: strategy, log: log}
}

// Detect compares an incoming server record against the local row with the
// same identity. It returns a conflict only when the local row has pending
// local changes and at least one shared field differs; the conflict is
// registered for the next ResolveAll pass. A nil conflict with nil error
// means the caller may apply the server record directly.
func (r *Resolver) Detect(ctx context.Context, table, localID, serverID string, serverData map[string]any, serverModifiedAt time.Time) (*models.Conflict, error) {
	local, err := r.rows.GetByLocalID(ctx, table, localID)
	if err != nil {
		return nil, fmt.Errorf("conflict lookup for %s/%s: %w", table, localID, err)
	}

	if local.SyncStatus != common.RowPending {
		return nil, nil
	}

	c := &models.Conflict{
		ID:               uuid.NewString(),
		Table:            table,
		LocalID:          localID,
		ServerID:         serverID,
		LocalData:        local.Data,
		ServerData:       serverData,
		LocalModifiedAt:  local.UpdatedAt,
		ServerModifiedAt: serverModifiedAt,
	}
	if len(c.ConflictingFields()) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	r.conflicts = append(r.conflicts, c)
	r.mu.Unlock()

	r.log.Info(ctx, "conflict detected",
		"table", table, "local_id", localID, "fields", c.ConflictingFields())
	return c, nil
}

// ResolveAll applies the configured strategy to every unresolved conflict.
// Failed resolutions keep their conflict open and are reported in the
// returned count of still-unresolved conflicts.
func (r *Resolver) ResolveAll(ctx context.Context) (resolved, remaining int) {
	r.mu.Lock()
	open := make([]*models.Conflict, 0, len(r.conflicts))
	for _, c := range r.conflicts {
		if !c.Resolved {
			open = append(open, c)
		}
	}
	strategy := r.strategy
	r.mu.Unlock()

	for _, c := range open {
		if err := r.Resolve(ctx, c, strategy); err != nil {
			if !errors.Is(err, common.ErrConflictUnresolved) {
				r.log.Error(ctx, "conflict resolution failed",
					"table", c.Table, "local_id", c.LocalID, "error", err.Error())
			}
			remaining++
			continue
		}
		resolved++
	}
	return resolved, remaining
}

// Resolve settles a single conflict with an explicit strategy. Exposed so the
// UI can act on manually held conflicts.
func (r *Resolver) Resolve(ctx context.Context, c *models.Conflict, strategy models.ResolutionStrategy) error {
	var err error
	switch strategy {
	case models.ResolutionKeepLocal:
		err = r.keepLocal(ctx, c)
	case models.ResolutionKeepServer:
		err = r.keepServer(ctx, c)
	case models.ResolutionMerge:
		err = r.merge(ctx, c)
	case models.ResolutionDuplicate:
		err = r.duplicate(ctx, c)
	case models.ResolutionManual:
		return common.ErrConflictUnresolved
	default:
		return fmt.Errorf("unknown resolution strategy %q", strategy)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	c.Resolution = strategy
	c.Resolved = true
	r.resolved++
	r.mu.Unlock()
	return nil
}

// keepLocal discards the incoming server record and re-queues the local
// version so the next push overwrites the server.
func (r *Resolver) keepLocal(ctx context.Context, c *models.Conflict) error {
	return r.queue.Enqueue(ctx, &models.QueueEntry{
		Table:         c.Table,
		RecordLocalID: c.LocalID,
		Operation:     models.OpUpdate,
		Payload:       c.LocalData,
	})
}

// keepServer overwrites the local row with the server version and marks it
// synced; the pending local edits are dropped.
func (r *Resolver) keepServer(ctx context.Context, c *models.Conflict) error {
	return r.rows.ApplyServer(ctx, c.Table, &models.Row{
		LocalID:         c.LocalID,
		ServerID:        c.ServerID,
		Data:            c.ServerData,
		ServerUpdatedAt: c.ServerModifiedAt,
	})
}

// merge combines both versions field by field; for each differing field the
// more recently modified side wins. When any local field survives, the merged
// record is re-queued so the server converges too.
func (r *Resolver) merge(ctx context.Context, c *models.Conflict) error {
	localWins := c.LocalModifiedAt.After(c.ServerModifiedAt)

	merged := make(map[string]any, len(c.ServerData)+len(c.LocalData))
	for k, v := range c.ServerData {
		merged[k] = v
	}
	localKept := false
	for k, v := range c.LocalData {
		if _, shared := c.ServerData[k]; !shared {
			// local-only field, nothing to lose
			merged[k] = v
			localKept = true
			continue
		}
		if localWins {
			merged[k] = v
		}
	}
	if localWins && len(c.ConflictingFields()) > 0 {
		localKept = true
	}

	if err := r.rows.ApplyServer(ctx, c.Table, &models.Row{
		LocalID:         c.LocalID,
		ServerID:        c.ServerID,
		Data:            merged,
		ServerUpdatedAt: c.ServerModifiedAt,
	}); err != nil {
		return err
	}

	if localKept {
		if err := r.rows.MarkPending(ctx, c.Table, c.LocalID); err != nil {
			return err
		}
		return r.queue.Enqueue(ctx, &models.QueueEntry{
			Table:         c.Table,
			RecordLocalID: c.LocalID,
			Operation:     models.OpUpdate,
			Payload:       merged,
		})
	}
	return nil
}

// duplicate materializes the incoming record as a brand-new local entity. The
// original local row gives up its server identity and is re-queued as a
// create, so both versions survive on both sides.
func (r *Resolver) duplicate(ctx context.Context, c *models.Conflict) error {
	if err := r.rows.SetServerID(ctx, c.Table, c.LocalID, ""); err != nil {
		return err
	}
	if err := r.rows.ApplyServer(ctx, c.Table, &models.Row{
		ServerID:        c.ServerID,
		Data:            c.ServerData,
		ServerUpdatedAt: c.ServerModifiedAt,
	}); err != nil {
		return err
	}
	return r.queue.Enqueue(ctx, &models.QueueEntry{
		Table:         c.Table,
		RecordLocalID: c.LocalID,
		Operation:     models.OpCreate,
		Payload:       c.LocalData,
	})
}

// Conflicts returns a snapshot of every tracked conflict.
func (r *Resolver) Conflicts() []*models.Conflict {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Conflict, len(r.conflicts))
	copy(out, r.conflicts)
	return out
}

// ConflictCount returns the number of tracked conflicts, resolved or not.
func (r *Resolver) ConflictCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conflicts)
}

// ResolvedCount returns how many conflicts have been settled.
func (r *Resolver) ResolvedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}

// HasUnresolved reports whether any conflict still needs attention.
func (r *Resolver) HasUnresolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conflicts {
		if !c.Resolved {
			return true
		}
	}
	return false
}

// Reset drops resolved conflicts and the resolved counter. Called at the
// start of each cycle; unresolved conflicts are carried over.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.conflicts[:0]
	for _, c := range r.conflicts {
		if !c.Resolved {
			kept = append(kept, c)
		}
	}
	r.conflicts = kept
	r.resolved = 0
}
