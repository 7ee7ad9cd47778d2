package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/conflict"
	"github.com/graintrack/syncengine/internal/logging"
	"github.com/graintrack/syncengine/internal/models"
	"github.com/graintrack/syncengine/internal/payloads"
	"github.com/graintrack/syncengine/internal/repositories/metadata"
	"github.com/graintrack/syncengine/internal/repositories/queue"
	"github.com/graintrack/syncengine/internal/repositories/rows"
	"github.com/graintrack/syncengine/internal/transport"
)

// Connectivity is the slice of the network monitor the engine needs.
type Connectivity interface {
	IsConnected(ctx context.Context) bool
	Changes() <-chan bool
}

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	BatchSize     int           // queue entries drained per push, default 50
	MaxRetries    int           // retry ceiling per entry, default 3
	DebounceDelay time.Duration // quiet period after AddToQueue, default 2s
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.BatchSize <= 0 {
		out.BatchSize = 50
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 3
	}
	if out.DebounceDelay <= 0 {
		out.DebounceDelay = 2 * time.Second
	}
	return out
}

// Engine is the sync orchestrator. All exported methods are safe for
// concurrent use.
type Engine struct {
	opts      Options
	queue     queue.Repository
	rows      rows.Repository
	meta      metadata.Repository
	transport transport.Client
	monitor   Connectivity
	resolver  *conflict.Resolver
	log       logging.Logger

	running atomic.Bool
	paused  atomic.Bool

	mu          sync.Mutex
	status      models.SyncStatus
	cancelCycle context.CancelFunc
	debounce    *time.Timer
	periodic    chan struct{}

	onStatus    []func(models.SyncStatus)
	onResult    []func(models.SyncResult)
	onItemErr   []func(models.ItemError)
	onConflict  []func(*models.Conflict)
	statusChans []chan models.SyncStatus
}

// Queuer is the narrow write-path dependency handed to producers of local
// mutations (data repositories, UI code). They never see the rest of the
// engine.
type Queuer interface {
	AddToQueue(ctx context.Context, table, recordLocalID string, op models.Operation, payload map[string]any) error
	AddTyped(ctx context.Context, recordLocalID string, op models.Operation, b payloads.Builder) error
}

var _ Queuer = (*Engine)(nil)

// New wires an Engine from its collaborators.
func New(opts Options, queueRepo queue.Repository, rowRepo rows.Repository,
	metaRepo metadata.Repository, client transport.Client, monitor Connectivity,
	resolver *conflict.Resolver, log logging.Logger) *Engine {

	e := &Engine{
		opts:      opts.withDefaults(),
		queue:     queueRepo,
		rows:      rowRepo,
		meta:      metaRepo,
		transport: client,
		monitor:   monitor,
		resolver:  resolver,
		log:       log,
	}
	e.status = models.SyncStatus{State: models.StateIdle}
	return e
}

// OnStatusChange registers a callback invoked with every status snapshot.
func (e *Engine) OnStatusChange(fn func(models.SyncStatus)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStatus = append(e.onStatus, fn)
}

// OnResult registers a callback invoked with the result of every cycle.
func (e *Engine) OnResult(fn func(models.SyncResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onResult = append(e.onResult, fn)
}

// OnItemError registers a callback invoked for every per-item failure.
func (e *Engine) OnItemError(fn func(models.ItemError)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onItemErr = append(e.onItemErr, fn)
}

// OnConflict registers a callback invoked for every newly detected conflict.
func (e *Engine) OnConflict(fn func(*models.Conflict)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onConflict = append(e.onConflict, fn)
}

// StatusChanges returns a buffered channel receiving status snapshots. A
// slow consumer only ever misses intermediate snapshots, never the latest
// one.
func (e *Engine) StatusChanges() <-chan models.SyncStatus {
	ch := make(chan models.SyncStatus, 1)
	e.mu.Lock()
	e.statusChans = append(e.statusChans, ch)
	e.mu.Unlock()
	return ch
}

// Status returns the latest published snapshot.
func (e *Engine) Status() models.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// setStatus mutates the status under the lock and fans the new snapshot out
// to subscribers outside of it.
func (e *Engine) setStatus(mutate func(*models.SyncStatus)) {
	e.mu.Lock()
	mutate(&e.status)
	snapshot := e.status
	subs := e.onStatus
	chans := e.statusChans
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	for _, ch := range chans {
		// drop the stale snapshot if the subscriber has not consumed it yet
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

func (e *Engine) emitResult(result models.SyncResult) {
	e.mu.Lock()
	subs := e.onResult
	e.mu.Unlock()
	for _, fn := range subs {
		fn(result)
	}
}

func (e *Engine) emitItemError(ie models.ItemError) {
	e.mu.Lock()
	subs := e.onItemErr
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ie)
	}
}

func (e *Engine) emitConflict(c *models.Conflict) {
	e.mu.Lock()
	subs := e.onConflict
	e.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

// SyncNow runs one cycle. A call while another cycle is running returns
// immediately with a non-retryable failure and performs no I/O. Without
// connectivity it returns a retryable failure and flips the state to offline.
func (e *Engine) SyncNow(ctx context.Context, forceFull bool) (*models.SyncResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return &models.SyncResult{Success: false, Retryable: false, CompletedAt: time.Now().UTC()},
			common.ErrSyncInProgress
	}
	defer e.running.Store(false)

	if !e.monitor.IsConnected(ctx) {
		e.setStatus(func(s *models.SyncStatus) {
			s.State = models.StateOffline
			s.Phase = ""
			s.ErrorMessage = common.ErrOffline.Error()
		})
		return &models.SyncResult{Success: false, Retryable: true, CompletedAt: time.Now().UTC()},
			common.ErrOffline
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancelCycle = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.cancelCycle = nil
		e.mu.Unlock()
	}()

	return e.runCycle(cycleCtx, forceFull)
}

// CancelSync cooperatively stops an in-flight cycle. The cancellation context
// aborts the current network call; remaining items are skipped. Calling it
// with no cycle running is a no-op.
func (e *Engine) CancelSync() {
	e.mu.Lock()
	cancel := e.cancelCycle
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	e.setStatus(func(s *models.SyncStatus) {
		// the cycle may have finished between reading the cancel func and
		// getting here; never stamp a completed outcome
		if s.State != models.StateSyncing {
			return
		}
		s.State = models.StateCancelled
		s.Phase = ""
		s.ErrorMessage = common.ErrSyncCancelled.Error()
	})
}

// ForceFullSync discards every pending local mutation, then bootstraps from
// the server. Unsynced local work is lost.
func (e *Engine) ForceFullSync(ctx context.Context) (*models.SyncResult, error) {
	if err := e.queue.ClearAll(ctx); err != nil {
		return nil, err
	}
	e.refreshPendingCount(ctx)
	return e.SyncNow(ctx, true)
}

// Pause suppresses periodic and debounced automatic syncing. Manual SyncNow
// calls still run.
func (e *Engine) Pause() {
	e.paused.Store(true)
	e.setStatus(func(s *models.SyncStatus) {
		if s.State == models.StateIdle {
			s.State = models.StatePaused
		}
	})
}

// Resume lifts a Pause.
func (e *Engine) Resume() {
	e.paused.Store(false)
	e.setStatus(func(s *models.SyncStatus) {
		if s.State == models.StatePaused {
			s.State = models.StateIdle
		}
	})
}

// AddToQueue is the write path used by the rest of the application: it
// appends one mutation to the queue, refreshes the pending count, and
// schedules a short debounced sync attempt.
func (e *Engine) AddToQueue(ctx context.Context, table, recordLocalID string, op models.Operation, payload map[string]any) error {
	entry := &models.QueueEntry{
		Table:         table,
		RecordLocalID: recordLocalID,
		Operation:     op,
		Payload:       payload,
	}
	if err := e.queue.Enqueue(ctx, entry); err != nil {
		return err
	}

	e.refreshPendingCount(ctx)
	e.scheduleDebouncedSync()
	return nil
}

// AddTyped is AddToQueue for producers using the typed payload builders.
func (e *Engine) AddTyped(ctx context.Context, recordLocalID string, op models.Operation, b payloads.Builder) error {
	payload, err := b.Build()
	if err != nil {
		return err
	}
	return e.AddToQueue(ctx, b.Table(), recordLocalID, op, payload)
}

func (e *Engine) scheduleDebouncedSync() {
	if e.paused.Load() || e.running.Load() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.debounce != nil {
		e.debounce.Stop()
	}
	e.debounce = time.AfterFunc(e.opts.DebounceDelay, func() {
		if e.paused.Load() {
			return
		}
		if _, err := e.SyncNow(context.Background(), false); err != nil {
			e.log.Debug(context.Background(), "debounced sync skipped", "reason", err.Error())
		}
	})
}

// StartPeriodicSync launches a recurring timer that syncs when the engine is
// idle and pending work exists. It replaces any previous timer.
func (e *Engine) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	e.StopPeriodicSync()

	stop := make(chan struct{})
	e.mu.Lock()
	e.periodic = stop
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.periodicTick(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (e *Engine) periodicTick(ctx context.Context) {
	if e.paused.Load() || e.running.Load() {
		return
	}
	pending, err := e.queue.CountPending(ctx, e.opts.MaxRetries)
	if err != nil {
		e.log.Error(ctx, "periodic sync: pending count failed", "error", err.Error())
		return
	}
	if pending == 0 {
		return
	}
	if _, err := e.SyncNow(ctx, false); err != nil {
		e.log.Debug(ctx, "periodic sync skipped", "reason", err.Error())
	}
}

// StopPeriodicSync stops the recurring timer, if any.
func (e *Engine) StopPeriodicSync() {
	e.mu.Lock()
	stop := e.periodic
	e.periodic = nil
	e.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// WatchConnectivity consumes the monitor's change stream until ctx is done.
// Connectivity loss forces the offline state without cancelling an in-flight
// cycle; regain triggers an automatic sync when pending work exists.
func (e *Engine) WatchConnectivity(ctx context.Context) {
	changes := e.monitor.Changes()
	for {
		select {
		case online, ok := <-changes:
			if !ok {
				return
			}
			e.onConnectivityChange(ctx, online)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) onConnectivityChange(ctx context.Context, online bool) {
	if !online {
		e.setStatus(func(s *models.SyncStatus) {
			if s.State != models.StateSyncing {
				s.State = models.StateOffline
				s.Phase = ""
			}
		})
		return
	}

	e.setStatus(func(s *models.SyncStatus) {
		if s.State == models.StateOffline {
			s.State = models.StateIdle
		}
	})

	pending, err := e.queue.CountPending(ctx, e.opts.MaxRetries)
	if err != nil || pending == 0 {
		return
	}
	go func() {
		if _, err := e.SyncNow(ctx, false); err != nil {
			e.log.Debug(ctx, "connectivity-regain sync skipped", "reason", err.Error())
		}
	}()
}

// ClearSyncData forgets the persisted last-sync watermark, so the next cycle
// pulls the full dataset.
func (e *Engine) ClearSyncData(ctx context.Context) error {
	return e.meta.Delete(ctx, common.LastSyncTimeKey)
}

// PendingCount returns the number of live queue entries under the retry
// ceiling. Drives UI badges.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.queue.CountPending(ctx, e.opts.MaxRetries)
}

func (e *Engine) refreshPendingCount(ctx context.Context) {
	pending, err := e.queue.CountPending(ctx, e.opts.MaxRetries)
	if err != nil {
		e.log.Error(ctx, "pending count failed", "error", err.Error())
		return
	}
	e.setStatus(func(s *models.SyncStatus) { s.PendingCount = pending })
}

func (e *Engine) loadLastSyncTime(ctx context.Context) *time.Time {
	raw, err := e.meta.Get(ctx, common.LastSyncTimeKey)
	if err != nil {
		e.log.Warn(ctx, "failed to read last sync time", "error", err.Error())
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		e.log.Warn(ctx, "corrupt last sync time, ignoring", "value", string(raw))
		return nil
	}
	return &ts
}

func (e *Engine) saveLastSyncTime(ctx context.Context, ts time.Time) {
	if err := e.meta.Set(ctx, common.LastSyncTimeKey, []byte(ts.UTC().Format(time.RFC3339))); err != nil {
		e.log.Error(ctx, "failed to persist last sync time", "error", err.Error())
	}
}
