package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a transport-level failure from a single call: a non-2xx response
// or a network-level problem surfaced by the HTTP client.
type Error struct {
	StatusCode int // 0 for network-level failures
	Path       string
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("transport: %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// NotFound reports whether the server answered 404.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Transient reports whether the failure is worth retrying with backoff:
// network-level errors and 5xx responses. Client errors (4xx) are not.
func (e *Error) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a transport 404.
func IsNotFound(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.NotFound()
}
