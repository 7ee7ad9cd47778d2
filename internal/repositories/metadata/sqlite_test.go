package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "last_sync_time", []byte("2026-08-30T10:00:00Z")))

	got, err := r.Get(ctx, "last_sync_time")
	require.NoError(t, err)
	assert.Equal(t, []byte("2026-08-30T10:00:00Z"), got)

	// overwrite
	require.NoError(t, r.Set(ctx, "last_sync_time", []byte("2026-08-30T11:00:00Z")))
	got, err = r.Get(ctx, "last_sync_time")
	require.NoError(t, err)
	assert.Equal(t, []byte("2026-08-30T11:00:00Z"), got)
}

func TestGet_MissingKeyReturnsNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "device_id", []byte("d1")))
	require.NoError(t, r.Delete(ctx, "device_id"))

	got, err := r.Get(ctx, "device_id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAndClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte("1")))
	require.NoError(t, r.Set(ctx, "b", []byte("2")))

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, all)

	require.NoError(t, r.Clear(ctx))
	all, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
