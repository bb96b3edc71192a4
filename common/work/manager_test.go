package work

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/redis"
)

func testGuard(t *testing.T) *RunGuard {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClientFromAddr(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRunGuard(client)
}

func TestRunGuardAcquireRelease(t *testing.T) {
	guard := testGuard(t)
	ctx := context.Background()

	require.NoError(t, guard.Acquire(ctx, "tenant-1"))

	running, err := guard.IsRunning(ctx, "tenant-1")
	require.NoError(t, err)
	assert.True(t, running)

	// Second acquire for the same tenant is rejected.
	assert.ErrorIs(t, guard.Acquire(ctx, "tenant-1"), common.ErrRunInProgress)

	// A different tenant is unaffected.
	require.NoError(t, guard.Acquire(ctx, "tenant-2"))

	require.NoError(t, guard.Release(ctx, "tenant-1"))
	running, err = guard.IsRunning(ctx, "tenant-1")
	require.NoError(t, err)
	assert.False(t, running)

	// Released slot can be taken again.
	require.NoError(t, guard.Acquire(ctx, "tenant-1"))
}

func TestRunGuardListActiveTenants(t *testing.T) {
	guard := testGuard(t)
	ctx := context.Background()

	active, err := guard.ListActiveTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, guard.Acquire(ctx, "tenant-a"))
	require.NoError(t, guard.Acquire(ctx, "tenant-b"))

	active, err = guard.ListActiveTenants(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tenant-a", "tenant-b"}, active)
}
