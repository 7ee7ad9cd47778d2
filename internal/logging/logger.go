// Package logging defines the minimal structured-logging interface used across
// the sync engine. The concrete implementation wraps log/slog; tests can use
// NewNop to silence output.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "push complete", "table", table, "pushed", n)
type Logger interface {
	// Debug logs fine-grained progress useful only when diagnosing the engine.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
