package models

import (
	"reflect"
	"sort"
	"time"
)

// ResolutionStrategy selects how a detected conflict is settled.
type ResolutionStrategy string

const (
	// ResolutionKeepLocal discards the incoming server record and re-queues the
	// local version as dirty.
	ResolutionKeepLocal ResolutionStrategy = "keep_local"

	// ResolutionKeepServer overwrites the local record with the server version
	// and marks it synced.
	ResolutionKeepServer ResolutionStrategy = "keep_server"

	// ResolutionMerge combines both versions field by field; for each differing
	// field the side with the more recent modification timestamp wins.
	ResolutionMerge ResolutionStrategy = "merge"

	// ResolutionDuplicate materializes the server record as a new local entity
	// instead of overwriting, preserving both versions.
	ResolutionDuplicate ResolutionStrategy = "duplicate"

	// ResolutionManual leaves the conflict unresolved for explicit user action.
	ResolutionManual ResolutionStrategy = "manual"
)

// Conflict records a divergence between a locally modified record and an
// incoming server version of the same logical entity. Conflicts exist only
// for records whose sync status is "pending local changes"; clean records are
// blind-overwritten during pull.
type Conflict struct {
	ID               string
	Table            string
	LocalID          string
	ServerID         string
	LocalData        map[string]any
	ServerData       map[string]any
	LocalModifiedAt  time.Time
	ServerModifiedAt time.Time
	Resolution       ResolutionStrategy
	Resolved         bool
}

// ConflictingFields computes the set of shared keys whose values differ
// between the local and server data, sorted for stable output. It is derived,
// never stored.
func (c *Conflict) ConflictingFields() []string {
	var fields []string
	for key, localVal := range c.LocalData {
		serverVal, ok := c.ServerData[key]
		if !ok {
			continue
		}
		if !reflect.DeepEqual(localVal, serverVal) {
			fields = append(fields, key)
		}
	}
	sort.Strings(fields)
	return fields
}
