package models

import "time"

// Row is a generic record of the local store. Every synchronized table shares
// this shape: a local surrogate key, an optional server-assigned identifier,
// a sync-status marker, and the domain fields as an opaque map.
type Row struct {
	LocalID         string
	ServerID        string
	SyncStatus      string
	Data            map[string]any
	UpdatedAt       time.Time
	ServerUpdatedAt time.Time
}

// HasServerID reports whether the server has ever acknowledged this record.
func (r *Row) HasServerID() bool {
	return r.ServerID != ""
}
