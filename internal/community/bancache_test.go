package community

import (
	"context"
	"testing"
	"time"

	"gatekeeper/internal/cache"
	"gatekeeper/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

// A global ban changes the answer for every community scope, so it has to
// flush cached answers under every scope key, not just the global one.
func TestIsUserBanned_GlobalBanInvalidatesScopedCache(t *testing.T) {
	useMiniredis(t)
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("mod-1", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeGlobal})

	// Prime a cached false under a community scope.
	banned, err := f.svc.IsUserBanned(ctx, "target", "community-42")
	require.NoError(t, err)
	assert.False(t, banned)

	_, err = f.svc.BanUser(ctx, "mod-1", "target", nil, models.BanPermanent, "spam", 0)
	require.NoError(t, err)

	banned, err = f.svc.IsUserBanned(ctx, "target", "community-42")
	require.NoError(t, err)
	assert.True(t, banned, "global ban applies to every community scope")
}

func TestIsUserBanned_UnbanInvalidatesScopedCache(t *testing.T) {
	useMiniredis(t)
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("mod-1", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeGlobal})

	ban, err := f.svc.BanUser(ctx, "mod-1", "target", nil, models.BanPermanent, "spam", 0)
	require.NoError(t, err)

	// Cache true under both the global and a scoped key.
	banned, err := f.svc.IsUserBanned(ctx, "target", "")
	require.NoError(t, err)
	require.True(t, banned)
	banned, err = f.svc.IsUserBanned(ctx, "target", "community-42")
	require.NoError(t, err)
	require.True(t, banned)

	lifted, err := f.svc.UnbanUser(ctx, "mod-1", ban.ID)
	require.NoError(t, err)
	require.True(t, lifted)

	banned, err = f.svc.IsUserBanned(ctx, "target", "community-42")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestExpireTemporaryBans_FlushesBanCache(t *testing.T) {
	useMiniredis(t)
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("mod-1", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeGlobal})

	ban, err := f.svc.BanUser(ctx, "mod-1", "target", nil, models.BanTemporary, "cooling off", 24)
	require.NoError(t, err)

	banned, err := f.svc.IsUserBanned(ctx, "target", "")
	require.NoError(t, err)
	require.True(t, banned)

	// Backdate the expiry so the sweep picks the ban up.
	past := time.Now().UTC().Add(-time.Hour)
	ban.ExpiresAt = &past

	expired, err := f.svc.ExpireTemporaryBans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	banned, err = f.svc.IsUserBanned(ctx, "target", "")
	require.NoError(t, err)
	assert.False(t, banned, "sweep drops the cached answer along with the ban")
}
