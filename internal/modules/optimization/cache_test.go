package optimization

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/aristath/rebalancer/internal/testing"
)

func TestCorrelationCache(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "cache")
	defer cleanup()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCorrelationCache(db.Conn(), zerolog.Nop()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := map[string]float64{"AAA:BBB": 0.91, "AAA:CCC": -0.2}
	require.NoError(t, cache.Set(ctx, "k1", want))

	got, ok, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Overwrite
	require.NoError(t, cache.Set(ctx, "k1", map[string]float64{"AAA:BBB": 0.5}))
	got, _, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAA:BBB": 0.5}, got)

	// Expiry
	now = now.Add(DefaultCacheTTL + time.Second)
	_, ok, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	purged, err := cache.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
