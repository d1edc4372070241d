package repository

import (
	"context"
	"time"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// ActionRepository defines interface for the append-only moderation action log
type ActionRepository interface {
	Create(ctx context.Context, action *models.ModerationAction) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]*models.ModerationAction, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByModeratorSince(ctx context.Context, since time.Time) (map[string]int64, error)
}

type actionRepository struct {
	db *gorm.DB
}

// NewActionRepository creates a new ActionRepository
func NewActionRepository(db *gorm.DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Create(ctx context.Context, action *models.ModerationAction) error {
	return r.db.WithContext(ctx).Create(action).Error
}

func (r *actionRepository) ListByTarget(ctx context.Context, targetType, targetID string) ([]*models.ModerationAction, error) {
	var actions []*models.ModerationAction
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at desc").
		Find(&actions).Error
	return actions, err
}

func (r *actionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.ModerationAction{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *actionRepository) CountByModeratorSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		ModeratorID string
		N           int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ModerationAction{}).
		Select("moderator_id, COUNT(*) as n").
		Where("created_at >= ?", since).
		Group("moderator_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.ModeratorID] = rw.N
	}
	return counts, nil
}
