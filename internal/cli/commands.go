package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/models"
)

func (a *App) sync(ctx context.Context) {
	result, err := a.engine.SyncNow(ctx, false)
	if err != nil {
		fmt.Printf("sync failed: %v\n", err)
		return
	}
	a.printResult(result)
}

func (a *App) fullSync(ctx context.Context) {
	fmt.Println("discarding queued local changes and re-pulling everything")
	result, err := a.engine.ForceFullSync(ctx)
	if err != nil {
		fmt.Printf("full sync failed: %v\n", err)
		return
	}
	a.printResult(result)
}

func (a *App) printResult(r *models.SyncResult) {
	fmt.Printf("pushed %d, pulled %d, failed %d in %s\n",
		r.PushedCount, r.PulledCount, r.FailedCount, r.Duration.Round(time.Millisecond))
	for _, ie := range r.Errors {
		fmt.Printf("  %s/%s %s: %s\n", ie.Table, ie.RecordID, ie.Operation, ie.Message)
	}
}

func (a *App) status() {
	s := a.engine.Status()
	fmt.Printf("state: %s", s.State)
	if s.Phase != "" {
		fmt.Printf(" (%s)", s.Phase)
	}
	fmt.Println()
	fmt.Printf("pending: %d, conflicts: %d (%d resolved)\n",
		s.PendingCount, s.ConflictCount, s.ResolvedConflictCount)
	if !s.LastSyncTime.IsZero() {
		fmt.Printf("last sync: %s\n", s.LastSyncTime.Format("2006-01-02 15:04:05"))
	}
	if s.ErrorMessage != "" {
		fmt.Printf("last error: %s\n", s.ErrorMessage)
	}
}

func (a *App) pending(ctx context.Context) {
	entries, err := a.repos.Queue.PendingBatch(ctx, a.config.MaxRetries, a.config.BatchSize)
	if err != nil {
		fmt.Printf("failed to read queue: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("queue is empty")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %-18s %-6s %s", e.ID, e.Table, e.Operation, e.RecordLocalID)
		if e.RetryCount > 0 {
			fmt.Printf("  (retries: %d, last error: %s)", e.RetryCount, e.LastError)
		}
		fmt.Println()
	}
}

func (a *App) deadLetters(ctx context.Context) {
	entries, err := a.repos.Queue.DeadLetters(ctx)
	if err != nil {
		fmt.Printf("failed to read dead letters: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("no dead-lettered entries")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %-18s %-6s %s  %s\n",
			e.ID, e.Table, e.Operation, e.RecordLocalID, e.LastError)
	}
}

func (a *App) revive(ctx context.Context, entryID string) {
	if err := a.repos.Queue.Revive(ctx, entryID); err != nil {
		fmt.Printf("revive failed: %v\n", err)
		return
	}
	fmt.Println("entry returned to the queue, it joins the next sync")
}

func (a *App) conflicts() {
	cs := a.resolver.Conflicts()
	if len(cs) == 0 {
		fmt.Println("no conflicts")
		return
	}
	for _, c := range cs {
		state := "unresolved"
		if c.Resolved {
			state = fmt.Sprintf("resolved (%s)", c.Resolution)
		}
		fmt.Printf("%s  %s/%s  fields: %s  %s\n",
			c.ID, c.Table, c.LocalID,
			strings.Join(c.ConflictingFields(), ","), state)
	}
}

func (a *App) resolve(ctx context.Context, conflictID, arg string) {
	strategy, ok := parseStrategy(arg)
	if !ok {
		fmt.Printf("unknown strategy %q\n", arg)
		return
	}

	for _, c := range a.resolver.Conflicts() {
		if c.ID != conflictID {
			continue
		}
		if err := a.resolver.Resolve(ctx, c, strategy); err != nil {
			fmt.Printf("resolve failed: %v\n", err)
			return
		}
		fmt.Println("conflict resolved")
		return
	}
	fmt.Printf("no conflict with id %s\n", conflictID)
}

func (a *App) add(ctx context.Context, table string, args []string) {
	if !slices.Contains(models.TableOrder(), table) {
		fmt.Printf("unknown table %q, one of: %s\n",
			table, strings.Join(models.TableOrder(), ", "))
		return
	}

	payload, err := parseFields(args)
	if err != nil {
		fmt.Println(err)
		return
	}

	row := &models.Row{SyncStatus: common.RowPending, Data: payload}
	if err := a.repos.Rows.Insert(ctx, table, row); err != nil {
		fmt.Printf("insert failed: %v\n", err)
		return
	}
	if err := a.engine.AddToQueue(ctx, table, row.LocalID, models.OpCreate, payload); err != nil {
		fmt.Printf("enqueue failed: %v\n", err)
		return
	}
	fmt.Printf("queued create %s/%s\n", table, row.LocalID)
}

func (a *App) meta(ctx context.Context) {
	kv, err := a.repos.Metadata.List(ctx)
	if err != nil {
		fmt.Printf("failed to list metadata: %v\n", err)
		return
	}
	if len(kv) == 0 {
		fmt.Println("no metadata")
		return
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("%s = %s\n", k, kv[k])
	}
}

func (a *App) reset(ctx context.Context) {
	fmt.Println("discarding the queue and all sync metadata")
	if err := ResetLocalState(ctx, a.repos); err != nil {
		fmt.Printf("reset failed: %v\n", err)
		return
	}
	fmt.Println("local sync state reset")
}

func (a *App) clear(ctx context.Context) {
	if err := a.engine.ClearSyncData(ctx); err != nil {
		fmt.Printf("clear failed: %v\n", err)
		return
	}
	fmt.Println("sync watermark cleared, the next sync pulls everything")
}
