package metadata

import (
	"context"
)

// Repository is the key-value preference store the engine uses for
// cross-session state such as the last successful sync time and the device
// identifier.
type Repository interface {
	// Get returns the value for key, or nil when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
