// Package common defines shared constants and sentinel errors used across the
// sync engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Cycle admission errors. ErrSyncInProgress is not retryable: the caller
	// already has a cycle running and retrying would never help. ErrOffline is
	// retryable once connectivity returns.
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrOffline        = errors.New("no network connectivity")

	// ErrSyncCancelled reports a cooperatively cancelled cycle. Not retryable
	// automatically; the user asked for the stop.
	ErrSyncCancelled = errors.New("sync cancelled")

	// ErrMissingServerID marks a logic error: an update or delete was queued
	// for a record whose create was never acknowledged by the server. Incrementing
	// the retry count would not fix it.
	ErrMissingServerID = errors.New("record has no server identifier")

	// ErrConflictUnresolved is returned by resolution strategies that defer to
	// the user (manual resolution).
	ErrConflictUnresolved = errors.New("conflict requires manual resolution")
)

// Retryable reports whether err is worth retrying in a later cycle.
// Cancellation, double-start, and missing-server-id failures are terminal.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrSyncInProgress),
		errors.Is(err, ErrSyncCancelled),
		errors.Is(err, ErrMissingServerID):
		return false
	default:
		return true
	}
}
