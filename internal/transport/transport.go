// Package transport implements the REST client the sync engine talks to the
// backend through. It exposes generic verb helpers plus the sync-specific
// endpoints (delta pull, per-table create/update/delete).
package transport

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Response is the envelope every backend endpoint returns.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// ServerRecord is one record in a pull response. The identifier and
// timestamps are lifted out of the JSON object; every other key stays in
// Fields untouched, since the engine never interprets domain data.
type ServerRecord struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    map[string]any
}

// UnmarshalJSON splits the flat server object into envelope fields and
// domain fields.
func (r *ServerRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case "id":
			if s, ok := v.(string); ok {
				r.ID = s
			}
		case "created_at":
			r.CreatedAt = parseTimestamp(v)
		case "updated_at":
			r.UpdatedAt = parseTimestamp(v)
		default:
			fields[k] = v
		}
	}
	r.Fields = fields
	return nil
}

func parseTimestamp(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// TokenProvider supplies the bearer token attached to every request. Token
// acquisition and refresh are owned by the auth layer, not the engine.
type TokenProvider func(ctx context.Context) (string, error)

// Client is the remote transport collaborator. All methods honor context
// cancellation, including mid-request.
type Client interface {
	Get(ctx context.Context, path string, query url.Values) (*Response, error)
	Post(ctx context.Context, path string, body any) (*Response, error)
	Put(ctx context.Context, path string, body any) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)

	// Pull fetches server changes since the given time, keyed by table name.
	// A nil since requests the full unfiltered dataset (bootstrap).
	Pull(ctx context.Context, since *time.Time) (map[string][]ServerRecord, error)

	// CreateRecord pushes a queued create and returns the server-assigned id.
	CreateRecord(ctx context.Context, table string, payload map[string]any) (string, error)

	// UpdateRecord pushes a queued update for a known server record.
	UpdateRecord(ctx context.Context, table, serverID string, payload map[string]any) error

	// DeleteRecord pushes a queued delete. A 404 from the server means the
	// record is already gone and is treated as success.
	DeleteRecord(ctx context.Context, table, serverID string) error

	// Ping probes the health endpoint. Used by the connectivity monitor.
	Ping(ctx context.Context) error
}
