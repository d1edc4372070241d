package repository

import (
	"context"
	"errors"
	"time"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// BanRepository defines interface for user ban operations
type BanRepository interface {
	Create(ctx context.Context, ban *models.UserBan) error
	GetByID(ctx context.Context, id string) (*models.UserBan, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserBan, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*models.UserBan, error)
	FindActive(ctx context.Context, userID string, communityID *string) (*models.UserBan, error)
	Deactivate(ctx context.Context, id string) (bool, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type banRepository struct {
	db *gorm.DB
}

// NewBanRepository creates a new BanRepository
func NewBanRepository(db *gorm.DB) BanRepository {
	return &banRepository{db: db}
}

func (r *banRepository) Create(ctx context.Context, ban *models.UserBan) error {
	return r.db.WithContext(ctx).Create(ban).Error
}

func (r *banRepository) GetByID(ctx context.Context, id string) (*models.UserBan, error) {
	var ban models.UserBan
	if err := r.db.WithContext(ctx).First(&ban, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ban, nil
}

func (r *banRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserBan, error) {
	var bans []*models.UserBan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&bans).Error
	return bans, err
}

func (r *banRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.UserBan, error) {
	var bans []*models.UserBan
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&bans).Error
	return bans, err
}

// FindActive returns the active ban matching the exact community scope
// (nil means the global ban), or nil when none exists.
func (r *banRepository) FindActive(ctx context.Context, userID string, communityID *string) (*models.UserBan, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true)
	if communityID == nil {
		q = q.Where("community_id IS NULL")
	} else {
		q = q.Where("community_id = ?", *communityID)
	}
	var ban models.UserBan
	err := q.First(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ban, nil
}

// Deactivate lifts a ban. Returns false when the ban was not active, which
// callers surface as a no-op rather than an error.
func (r *banRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserBan{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

// ExpireBefore deactivates every active temporary ban whose expiry has
// passed. Re-running the sweep is a no-op for already-deactivated bans.
func (r *banRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserBan{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *banRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.UserBan{}).
		Where("is_active = ?", true).
		Count(&n).Error
	return n, err
}
