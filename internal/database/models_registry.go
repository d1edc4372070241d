package database

import "gatekeeper/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.ModerationRule{},
		&models.ContentModerationResult{},
		&models.QueueItem{},
		&models.UserReport{},
		&models.CommunityModerator{},
		&models.UserBan{},
		&models.Appeal{},
		&models.ModerationAction{},
	}
}
