package repository

import (
	"context"
	"time"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// ResultRepository defines interface for moderation result operations.
// Results are append-only; the only delete path is the retention cleanup.
type ResultRepository interface {
	Create(ctx context.Context, result *models.ContentModerationResult) error
	ListSince(ctx context.Context, since, until *time.Time) ([]*models.ContentModerationResult, error)
	ListByContent(ctx context.Context, contentID string, contentType models.ContentType) ([]*models.ContentModerationResult, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates a new ResultRepository
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) Create(ctx context.Context, result *models.ContentModerationResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *resultRepository) ListSince(
	ctx context.Context,
	since, until *time.Time,
) ([]*models.ContentModerationResult, error) {
	q := r.db.WithContext(ctx).Model(&models.ContentModerationResult{})
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	if until != nil {
		q = q.Where("created_at <= ?", *until)
	}
	var results []*models.ContentModerationResult
	err := q.Order("created_at desc").Find(&results).Error
	return results, err
}

func (r *resultRepository) ListByContent(
	ctx context.Context,
	contentID string,
	contentType models.ContentType,
) ([]*models.ContentModerationResult, error) {
	var results []*models.ContentModerationResult
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND content_type = ?", contentID, contentType).
		Order("created_at desc").
		Find(&results).Error
	return results, err
}

func (r *resultRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ContentModerationResult{})
	return res.RowsAffected, res.Error
}
