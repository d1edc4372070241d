package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedStats struct {
	Pending int `json:"pending"`
	Open    int `json:"open"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestGetSetJSON(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	var got cachedStats
	assert.False(t, GetJSON(ctx, QueueStatsKey, &got), "miss on empty cache")

	SetJSON(ctx, QueueStatsKey, cachedStats{Pending: 7, Open: 3}, QueueStatsTTL)
	require.True(t, GetJSON(ctx, QueueStatsKey, &got))
	assert.Equal(t, cachedStats{Pending: 7, Open: 3}, got)

	// TTL expiry turns the hit back into a miss.
	mr.FastForward(QueueStatsTTL + time.Second)
	assert.False(t, GetJSON(ctx, QueueStatsKey, &got))
}

func TestGetJSON_CorruptValue(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set(DashboardKey, "{not json"))

	var got cachedStats
	assert.False(t, GetJSON(context.Background(), DashboardKey, &got))
}

func TestInvalidate(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	SetJSON(ctx, DashboardKey, cachedStats{Pending: 1}, DashboardTTL)
	Invalidate(ctx, DashboardKey)

	var got cachedStats
	assert.False(t, GetJSON(ctx, DashboardKey, &got))
}

func TestNilClientIsSafe(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	var got cachedStats
	assert.False(t, GetJSON(ctx, QueueStatsKey, &got))
	SetJSON(ctx, QueueStatsKey, cachedStats{Pending: 1}, QueueStatsTTL)
	Invalidate(ctx, QueueStatsKey)
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "moderation:banned:u-1:c-1", UserBanKey("u-1", "c-1"))
	assert.Equal(t, "moderation:banned:u-1:", UserBanKey("u-1", ""))
	assert.Equal(t, "moderation:moderators:c-9", ModeratorKey("c-9"))
}
