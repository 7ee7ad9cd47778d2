package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/models"
)

// runCycle executes the phases of one admitted cycle. The caller holds the
// running flag and owns the cancellation context.
func (e *Engine) runCycle(ctx context.Context, forceFull bool) (*models.SyncResult, error) {
	started := time.Now().UTC()
	lastSync := e.loadLastSyncTime(ctx)
	e.resolver.Reset()

	e.setStatus(func(s *models.SyncStatus) {
		previous := s.LastSyncTime
		*s = models.SyncStatus{
			State:     models.StateSyncing,
			Phase:     models.PhasePreparing,
			StartedAt: started,
		}
		if lastSync != nil {
			s.LastSyncTime = *lastSync
		} else {
			s.LastSyncTime = previous
		}
	})

	result := &models.SyncResult{}

	// preparing
	totalCount, err := e.queue.CountPending(ctx, e.opts.MaxRetries)
	if err != nil {
		return e.failCycle(ctx, result, started, err)
	}
	e.setStatus(func(s *models.SyncStatus) {
		s.TotalCount = totalCount
		s.PendingCount = totalCount
	})

	// pushing
	e.advancePhase(models.PhasePushing)
	if err := e.push(ctx, result); err != nil {
		return e.failCycle(ctx, result, started, err)
	}

	// pulling
	e.advancePhase(models.PhasePulling)
	var since *time.Time
	if !forceFull {
		since = lastSync
	}
	if err := e.pull(ctx, since, result); err != nil {
		return e.failCycle(ctx, result, started, err)
	}

	// resolving
	e.advancePhase(models.PhaseResolving)
	if e.resolver.HasUnresolved() {
		resolved, remaining := e.resolver.ResolveAll(ctx)
		e.log.Info(ctx, "conflicts resolved", "resolved", resolved, "remaining", remaining)
		e.setStatus(func(s *models.SyncStatus) {
			s.ResolvedConflictCount = resolved
		})
	}
	if err := ctx.Err(); err != nil {
		return e.failCycle(ctx, result, started, common.ErrSyncCancelled)
	}

	// finalizing
	e.advancePhase(models.PhaseFinalizing)
	completedAt := time.Now().UTC()
	e.saveLastSyncTime(ctx, completedAt)

	pending, err := e.queue.CountPending(ctx, e.opts.MaxRetries)
	if err != nil {
		pending = 0
		e.log.Warn(ctx, "failed to refresh pending count", "error", err.Error())
	}

	result.Success = true
	result.Duration = time.Since(started)
	result.CompletedAt = completedAt

	e.setStatus(func(s *models.SyncStatus) {
		s.State = models.StateSuccess
		s.Phase = models.PhaseComplete
		s.PendingCount = pending
		s.LastSyncTime = completedAt
	})
	e.emitResult(*result)
	e.log.Info(ctx, "sync cycle complete",
		"pushed", result.PushedCount, "pulled", result.PulledCount,
		"failed", result.FailedCount, "duration", result.Duration.String())
	return result, nil
}

func (e *Engine) advancePhase(phase models.SyncPhase) {
	e.setStatus(func(s *models.SyncStatus) { s.Phase = phase })
}

// failCycle handles a cycle-level failure: progress already applied stays,
// remaining phases are skipped, and the state reflects error vs cancelled.
func (e *Engine) failCycle(ctx context.Context, result *models.SyncResult, started time.Time, err error) (*models.SyncResult, error) {
	cancelled := errors.Is(err, common.ErrSyncCancelled) || errors.Is(err, context.Canceled)
	if cancelled {
		err = common.ErrSyncCancelled
	}

	result.Success = false
	result.Retryable = common.Retryable(err)
	result.Duration = time.Since(started)
	result.CompletedAt = time.Now().UTC()

	e.setStatus(func(s *models.SyncStatus) {
		if cancelled {
			s.State = models.StateCancelled
		} else {
			s.State = models.StateError
		}
		s.Phase = ""
		s.ErrorMessage = err.Error()
	})
	e.emitResult(*result)
	if !cancelled {
		e.log.Error(ctx, "sync cycle failed", "error", err.Error())
	}
	return result, err
}
