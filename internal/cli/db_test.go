package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintrack/syncengine/internal/common"
	"github.com/graintrack/syncengine/internal/models"
)

func TestInitDatabase(t *testing.T) {
	ctx := context.Background()

	repos, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	// migrations created every synchronized table
	row := &models.Row{Data: map[string]any{"name": "Ada"}}
	require.NoError(t, repos.Rows.Insert(ctx, models.TableCustomers, row))

	require.NoError(t, repos.Queue.Enqueue(ctx, &models.QueueEntry{
		Table:         models.TableCustomers,
		RecordLocalID: row.LocalID,
		Operation:     models.OpCreate,
		Payload:       row.Data,
	}))
	pending, err := repos.Queue.CountPending(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	deviceID, err := repos.Metadata.Get(ctx, common.DeviceIDKey)
	require.NoError(t, err)
	assert.NotEmpty(t, deviceID)
}

func TestResetLocalState(t *testing.T) {
	ctx := context.Background()

	repos, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	require.NoError(t, repos.Queue.Enqueue(ctx, &models.QueueEntry{
		Table:         models.TableCustomers,
		RecordLocalID: "c1",
		Operation:     models.OpCreate,
		Payload:       map[string]any{"name": "Ada"},
	}))
	require.NoError(t, repos.Metadata.Set(ctx, common.LastSyncTimeKey, []byte("2026-08-30T12:00:00Z")))

	require.NoError(t, ResetLocalState(ctx, repos))

	pending, err := repos.Queue.CountPending(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	watermark, err := repos.Metadata.Get(ctx, common.LastSyncTimeKey)
	require.NoError(t, err)
	assert.Nil(t, watermark)

	// the installation keeps an identity after a reset
	deviceID, err := repos.Metadata.Get(ctx, common.DeviceIDKey)
	require.NoError(t, err)
	assert.NotEmpty(t, deviceID)
}

func TestInitDatabase_DeviceIDIsStable(t *testing.T) {
	ctx := context.Background()

	repos, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	first, err := repos.Metadata.Get(ctx, common.DeviceIDKey)
	require.NoError(t, err)

	require.NoError(t, ensureDeviceID(ctx, repos.Metadata))
	second, err := repos.Metadata.Get(ctx, common.DeviceIDKey)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
