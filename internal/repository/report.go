package repository

import (
	"context"
	"time"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines interface for user report operations
type ReportRepository interface {
	Create(ctx context.Context, report *models.UserReport) error
	GetByID(ctx context.Context, id string) (*models.UserReport, error)
	ListPending(ctx context.Context) ([]*models.UserReport, error)
	ListByReporter(ctx context.Context, reporterID string) ([]*models.UserReport, error)
	MarkReviewedByQueueItem(ctx context.Context, queueItemID, reviewedBy string, status models.ReportStatus) error
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.UserReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.UserReport, error) {
	var report models.UserReport
	if err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) ListPending(ctx context.Context) ([]*models.UserReport, error) {
	var reports []*models.UserReport
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ReportPending).
		Order("created_at desc").
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) ListByReporter(ctx context.Context, reporterID string) ([]*models.UserReport, error) {
	var reports []*models.UserReport
	err := r.db.WithContext(ctx).
		Where("reporter_id = ?", reporterID).
		Order("created_at desc").
		Find(&reports).Error
	return reports, err
}

// MarkReviewedByQueueItem closes out every pending report attached to a
// queue item once its review completes.
func (r *reportRepository) MarkReviewedByQueueItem(
	ctx context.Context,
	queueItemID, reviewedBy string,
	status models.ReportStatus,
) error {
	return r.db.WithContext(ctx).
		Model(&models.UserReport{}).
		Where("queue_item_id = ? AND status = ?", queueItemID, models.ReportPending).
		Updates(map[string]any{
			"status":      status,
			"reviewed_by": reviewedBy,
		}).Error
}

func (r *reportRepository) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]models.ReportStatus{models.ReportResolved, models.ReportDismissed}, cutoff).
		Delete(&models.UserReport{})
	return res.RowsAffected, res.Error
}
