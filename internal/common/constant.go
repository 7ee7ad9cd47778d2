package common

// Metadata keys persisted in the local key-value store.
const (
	// LastSyncTimeKey stores the completion time of the last successful cycle
	// as an RFC 3339 string. Drives incremental pulls.
	LastSyncTimeKey = "last_sync_time"

	// DeviceIDKey stores the locally generated device identifier sent with
	// every push so the server can attribute changes.
	DeviceIDKey = "device_id"
)

// SyncStatusColumn values used in every synchronized table of the local store.
const (
	RowSynced  = "synced"
	RowPending = "pending"
)
