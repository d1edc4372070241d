package repository

import (
	"context"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// ModeratorRepository defines interface for community moderator operations.
// Removal deactivates rather than deletes so appointments stay auditable.
type ModeratorRepository interface {
	Create(ctx context.Context, mod *models.CommunityModerator) error
	GetByID(ctx context.Context, id string) (*models.CommunityModerator, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*models.CommunityModerator, error)
	ListActiveByCommunity(ctx context.Context, communityID string) ([]*models.CommunityModerator, error)
	Update(ctx context.Context, mod *models.CommunityModerator) error
	Deactivate(ctx context.Context, userID, communityID string) (bool, error)
}

type moderatorRepository struct {
	db *gorm.DB
}

// NewModeratorRepository creates a new ModeratorRepository
func NewModeratorRepository(db *gorm.DB) ModeratorRepository {
	return &moderatorRepository{db: db}
}

func (r *moderatorRepository) Create(ctx context.Context, mod *models.CommunityModerator) error {
	return r.db.WithContext(ctx).Create(mod).Error
}

func (r *moderatorRepository) GetByID(ctx context.Context, id string) (*models.CommunityModerator, error) {
	var mod models.CommunityModerator
	if err := r.db.WithContext(ctx).First(&mod, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mod, nil
}

func (r *moderatorRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.CommunityModerator, error) {
	var mods []*models.CommunityModerator
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&mods).Error
	return mods, err
}

func (r *moderatorRepository) ListActiveByCommunity(ctx context.Context, communityID string) ([]*models.CommunityModerator, error) {
	var mods []*models.CommunityModerator
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND is_active = ?", communityID, true).
		Order("created_at asc").
		Find(&mods).Error
	return mods, err
}

func (r *moderatorRepository) Update(ctx context.Context, mod *models.CommunityModerator) error {
	return r.db.WithContext(ctx).Save(mod).Error
}

func (r *moderatorRepository) Deactivate(ctx context.Context, userID, communityID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CommunityModerator{}).
		Where("user_id = ? AND community_id = ? AND is_active = ?", userID, communityID, true).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}
