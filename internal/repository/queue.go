package repository

import (
	"context"
	"errors"
	"time"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// QueueRepository defines interface for moderation queue operations.
// The state-changing operations are conditional updates: a transition
// returns false when the row was not in the expected state, which is how
// racing moderators are serialized without locks held in the service.
type QueueRepository interface {
	Create(ctx context.Context, item *models.QueueItem) error
	GetByID(ctx context.Context, id string) (*models.QueueItem, error)
	FindOpenByContent(ctx context.Context, contentID string, contentType models.ContentType) (*models.QueueItem, error)
	ListPending(ctx context.Context, assignedTo *string, priority *models.QueuePriority) ([]*models.QueueItem, error)
	UpdatePriority(ctx context.Context, id string, priority models.QueuePriority) error
	TransitionToInReview(ctx context.Context, id, moderatorID string) (bool, error)
	CompleteReview(ctx context.Context, id, moderatorID string) (bool, error)
	CountByStatus(ctx context.Context) (map[models.QueueStatus]int64, error)
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new QueueRepository
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Create(ctx context.Context, item *models.QueueItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *queueRepository) GetByID(ctx context.Context, id string) (*models.QueueItem, error) {
	var item models.QueueItem
	if err := r.db.WithContext(ctx).Preload("Reports").First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindOpenByContent returns the non-completed queue item for a content id,
// or nil when none exists. Reports merge into this item.
func (r *queueRepository) FindOpenByContent(
	ctx context.Context,
	contentID string,
	contentType models.ContentType,
) (*models.QueueItem, error) {
	var item models.QueueItem
	err := r.db.WithContext(ctx).
		Preload("Reports").
		Where("content_id = ? AND content_type = ? AND status <> ?", contentID, contentType, models.QueueCompleted).
		Order("created_at asc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *queueRepository) ListPending(
	ctx context.Context,
	assignedTo *string,
	priority *models.QueuePriority,
) ([]*models.QueueItem, error) {
	q := r.db.WithContext(ctx).
		Preload("Reports").
		Where("status = ?", models.QueuePending)
	if assignedTo != nil {
		q = q.Where("assigned_to = ?", *assignedTo)
	}
	if priority != nil {
		q = q.Where("priority = ?", *priority)
	}
	var items []*models.QueueItem
	err := q.Order("created_at asc").Find(&items).Error
	return items, err
}

func (r *queueRepository) UpdatePriority(ctx context.Context, id string, priority models.QueuePriority) error {
	return r.db.WithContext(ctx).
		Model(&models.QueueItem{}).
		Where("id = ?", id).
		Update("priority", priority).Error
}

// TransitionToInReview atomically moves a pending item to in_review for the
// given moderator. Returns false when the item was missing or already taken.
func (r *queueRepository) TransitionToInReview(ctx context.Context, id, moderatorID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.QueueItem{}).
		Where("id = ? AND status = ?", id, models.QueuePending).
		Updates(map[string]any{
			"status":      models.QueueInReview,
			"assigned_to": moderatorID,
		})
	return res.RowsAffected > 0, res.Error
}

// CompleteReview atomically completes an in_review item, but only for the
// moderator it is assigned to.
func (r *queueRepository) CompleteReview(ctx context.Context, id, moderatorID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.QueueItem{}).
		Where("id = ? AND status = ? AND assigned_to = ?", id, models.QueueInReview, moderatorID).
		Update("status", models.QueueCompleted)
	return res.RowsAffected > 0, res.Error
}

func (r *queueRepository) CountByStatus(ctx context.Context) (map[models.QueueStatus]int64, error) {
	type row struct {
		Status models.QueueStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.QueueItem{}).
		Select("status, COUNT(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.QueueStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.N
	}
	return counts, nil
}

func (r *queueRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.QueueCompleted, cutoff).
		Delete(&models.QueueItem{})
	return res.RowsAffected, res.Error
}
