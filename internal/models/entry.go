package models

import "time"

// QueueEntry is one pending local mutation awaiting server acknowledgment.
//
// RetryCount only ever grows. Once it reaches the configured ceiling the
// entry is dead-lettered: excluded from push batches and pending counts until
// it is revived or purged explicitly.
type QueueEntry struct {
	ID            string
	Table         string
	RecordLocalID string
	Operation     Operation
	Payload       map[string]any
	RetryCount    int
	LastError     string
	Dead          bool
	EnqueuedAt    time.Time
}
