package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// AppealRepository defines interface for appeal operations
type AppealRepository interface {
	Create(ctx context.Context, appeal *models.Appeal) error
	GetByID(ctx context.Context, id string) (*models.Appeal, error)
	ListPending(ctx context.Context) ([]*models.Appeal, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Appeal, error)
	DecideIfPending(ctx context.Context, id string, status models.AppealStatus, reviewedBy, resolution string) (bool, error)
	CountPending(ctx context.Context) (int64, error)
}

type appealRepository struct {
	db *gorm.DB
}

// NewAppealRepository creates a new AppealRepository
func NewAppealRepository(db *gorm.DB) AppealRepository {
	return &appealRepository{db: db}
}

func (r *appealRepository) Create(ctx context.Context, appeal *models.Appeal) error {
	return r.db.WithContext(ctx).Create(appeal).Error
}

func (r *appealRepository) GetByID(ctx context.Context, id string) (*models.Appeal, error) {
	var appeal models.Appeal
	if err := r.db.WithContext(ctx).First(&appeal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appeal, nil
}

func (r *appealRepository) ListPending(ctx context.Context) ([]*models.Appeal, error) {
	var appeals []*models.Appeal
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AppealPending).
		Order("created_at asc").
		Find(&appeals).Error
	return appeals, err
}

func (r *appealRepository) ListByUser(ctx context.Context, userID string) ([]*models.Appeal, error) {
	var appeals []*models.Appeal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&appeals).Error
	return appeals, err
}

// DecideIfPending atomically moves a pending appeal to its decision.
// Returns false when the appeal was missing or already decided.
func (r *appealRepository) DecideIfPending(
	ctx context.Context,
	id string,
	status models.AppealStatus,
	reviewedBy, resolution string,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Appeal{}).
		Where("id = ? AND status = ?", id, models.AppealPending).
		Updates(map[string]any{
			"status":      status,
			"reviewed_by": reviewedBy,
			"resolution":  resolution,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *appealRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Appeal{}).
		Where("status = ?", models.AppealPending).
		Count(&n).Error
	return n, err
}
