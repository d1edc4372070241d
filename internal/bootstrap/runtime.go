// Package bootstrap wires up the shared runtime (database, Redis, and
// development conveniences) for the server and the maintenance commands.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gatekeeper/internal/cache"
	"gatekeeper/internal/config"
	"gatekeeper/internal/database"
	"gatekeeper/internal/models"
	"gatekeeper/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime connects to DB and Redis and optionally seeds the built-in
// screening rules.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client degrades caching and events.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevGlobalModerator(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development moderator: %w", err)
	}

	if opts.SeedBuiltIns {
		if err := seed.Rules(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in screening rules: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevGlobalModerator appoints a global super admin for the configured
// user so a fresh development database is immediately operable.
func ensureDevGlobalModerator(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapModerator {
		return nil
	}

	userID := strings.TrimSpace(cfg.DevModeratorUserID)
	if userID == "" {
		return fmt.Errorf("DEV_MODERATOR_USER_ID must be set when DEV_BOOTSTRAP_MODERATOR is enabled")
	}

	grants := []models.Permission{
		{Action: models.PermBanUsers, Scope: models.ScopeGlobal},
		{Action: models.PermHandleAppeals, Scope: models.ScopeGlobal},
		{Action: models.PermReviewContent, Scope: models.ScopeGlobal},
		{Action: models.PermManageRules, Scope: models.ScopeGlobal},
		{Action: models.PermViewDashboard, Scope: models.ScopeGlobal},
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.CommunityModerator
		findErr := tx.Where("user_id = ? AND is_active = ?", userID, true).First(&existing).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			mod := models.CommunityModerator{
				UserID:      userID,
				CommunityID: "global",
				Role:        models.RoleSuperAdmin,
				Permissions: grants,
				IsActive:    true,
				AppointedBy: "bootstrap",
			}
			return tx.Create(&mod).Error
		case findErr != nil:
			return findErr
		default:
			if existing.HasGlobalScope() {
				return nil
			}
			return tx.Model(&models.CommunityModerator{}).
				Where("id = ?", existing.ID).
				Updates(map[string]any{"role": models.RoleSuperAdmin, "permissions": grants}).Error
		}
	}); err != nil {
		return err
	}

	log.Printf("development global moderator bootstrap ensured for user %s", userID)
	return nil
}
