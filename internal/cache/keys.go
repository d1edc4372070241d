package cache

import (
	"fmt"
	"time"
)

const (
	DashboardKey       = "moderation:dashboard"
	UserBanKeyPrefix   = "moderation:banned:%s:%s"
	QueueStatsKey      = "moderation:queue:stats"
	ModeratorKeyPrefix = "moderation:moderators:%s"
)

const (
	DashboardTTL  = 30 * time.Second
	QueueStatsTTL = 1 * time.Minute
	UserBanTTL    = 1 * time.Minute
	ModeratorTTL  = 5 * time.Minute
)

// BanKeysPattern matches every cached ban lookup.
const BanKeysPattern = "moderation:banned:*"

// UserBanKey caches an isUserBanned lookup. An empty communityID keys the
// global check.
func UserBanKey(userID, communityID string) string {
	return fmt.Sprintf(UserBanKeyPrefix, userID, communityID)
}

// UserBanPattern matches every cached ban lookup for one user, across all
// community scopes. A global ban changes the answer for every scope, so
// invalidation has to cover them all.
func UserBanPattern(userID string) string {
	return fmt.Sprintf("moderation:banned:%s:*", userID)
}

// ModeratorKey caches a community's active moderator list.
func ModeratorKey(communityID string) string {
	return fmt.Sprintf(ModeratorKeyPrefix, communityID)
}
