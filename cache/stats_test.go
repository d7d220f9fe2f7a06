package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"fleet-dispatch-system/models"
)

func newTestCache(t *testing.T) *StatsCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStatsCache(rdb)
}

func TestStatsRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	stats := map[string]models.CellStats{
		"tesdt1": {DriverCount: 2, OrderCount: 7, DensityRatio: 3.5, Status: models.CellOverloaded},
		"tesdt2": {DriverCount: 4, OrderCount: 1, DensityRatio: 0.25, Status: models.CellUnderutilized},
	}
	require.NoError(t, c.PublishStats(ctx, stats))

	got, err := c.ReadStats(ctx)
	require.NoError(t, err)
	require.Equal(t, stats, got)
}

func TestPublishReplacesSnapshot(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	first := map[string]models.CellStats{
		"tesdt1": {DriverCount: 1, OrderCount: 1, DensityRatio: 1, Status: models.CellBalanced},
		"tesdt2": {DriverCount: 1, OrderCount: 0, DensityRatio: 0, Status: models.CellUnderutilized},
	}
	require.NoError(t, c.PublishStats(ctx, first))

	// Stale cells from the previous snapshot must not survive.
	second := map[string]models.CellStats{
		"tesdt3": {DriverCount: 3, OrderCount: 3, DensityRatio: 1, Status: models.CellBalanced},
	}
	require.NoError(t, c.PublishStats(ctx, second))

	got, err := c.ReadStats(ctx)
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestPublishEmptyClears(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.PublishStats(ctx, map[string]models.CellStats{
		"tesdt1": {DriverCount: 1, OrderCount: 1, DensityRatio: 1, Status: models.CellBalanced},
	}))
	require.NoError(t, c.PublishStats(ctx, nil))

	got, err := c.ReadStats(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}
