package models

import "time"

// SyncState is the top-level state of the engine.
type SyncState string

const (
	StateIdle      SyncState = "idle"
	StateSyncing   SyncState = "syncing"
	StateSuccess   SyncState = "success"
	StateError     SyncState = "error"
	StateOffline   SyncState = "offline"
	StatePaused    SyncState = "paused"
	StateCancelled SyncState = "cancelled"
)

// SyncPhase is the sub-state within one syncing cycle. Phases advance
// strictly in declaration order.
type SyncPhase string

const (
	PhasePreparing  SyncPhase = "preparing"
	PhasePushing    SyncPhase = "pushing"
	PhasePulling    SyncPhase = "pulling"
	PhaseResolving  SyncPhase = "resolving"
	PhaseFinalizing SyncPhase = "finalizing"
	PhaseComplete   SyncPhase = "complete"
)

// SyncStatus is an immutable snapshot of engine progress. The orchestrator
// publishes a fresh value after every phase transition and item-level tick;
// consumers never observe partial updates.
type SyncStatus struct {
	State SyncState
	Phase SyncPhase

	PendingCount          int
	SyncedCount           int
	TotalCount            int
	ConflictCount         int
	ResolvedConflictCount int

	LastSyncTime time.Time
	StartedAt    time.Time

	ErrorMessage string
}

// IsSyncing reports whether a cycle is currently running.
func (s SyncStatus) IsSyncing() bool {
	return s.State == StateSyncing
}
