package models

import "time"

// ItemError describes a single failed entry or record within a cycle. These
// are collected, not fatal: one item's failure never blocks the rest.
type ItemError struct {
	Table     string
	RecordID  string
	Operation Operation
	Message   string
}

// SyncResult is what one completed (or rejected) cycle returns to its caller.
// It is not persisted.
type SyncResult struct {
	Success     bool
	Retryable   bool
	PushedCount int
	PulledCount int
	FailedCount int
	Errors      []ItemError
	Duration    time.Duration
	CompletedAt time.Time
}
