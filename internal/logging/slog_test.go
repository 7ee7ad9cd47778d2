package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()
	log, buf := newBufferLogger(t)

	log.Debug(ctx, "debug msg", "k", "v")
	log.Info(ctx, "info msg")
	log.Warn(ctx, "warn msg")
	log.Error(ctx, "error msg")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "debug msg")
	assert.Contains(t, out, "k=v")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}

func TestSlogLogger_With(t *testing.T) {
	ctx := context.Background()
	log, buf := newBufferLogger(t)

	child := log.With("table", "customers")
	require.NotNil(t, child)
	child.Info(ctx, "row synced")

	assert.Contains(t, buf.String(), "table=customers")
}

func TestNewNop_DoesNotPanic(t *testing.T) {
	log := NewNop()
	log.Info(context.Background(), "ignored")
}
