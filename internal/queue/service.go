// Package queue implements the moderation review queue: enqueueing flagged
// content, user report intake, moderator assignment and review completion.
package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gatekeeper/internal/models"
	"gatekeeper/internal/notifications"
	"gatekeeper/internal/observability"
	"gatekeeper/internal/repository"
	"gatekeeper/internal/validation"
)

const (
	// Reports on one item before its priority escalates to high.
	escalationReportCount = 3

	// Confidence assigned to the seed flag of a report-created item.
	reportFlagConfidence = 0.7

	defaultPendingLimit  = 50
	defaultRetentionDays = 30
)

// ModerationQueueService manages the human review queue. Item state
// transitions are conditional updates in the store, so two moderators
// racing for the same item cannot both win. Report intake is additionally
// serialized per content key to keep find-or-create free of duplicates.
type ModerationQueueService struct {
	queueRepo  repository.QueueRepository
	reportRepo repository.ReportRepository
	resultRepo repository.ResultRepository
	actionRepo repository.ActionRepository

	publisher notifications.Publisher
	logger    *observability.ServiceLogger

	contentLocks keyedMutex
}

// NewModerationQueueService creates the queue service.
func NewModerationQueueService(
	queueRepo repository.QueueRepository,
	reportRepo repository.ReportRepository,
	resultRepo repository.ResultRepository,
	actionRepo repository.ActionRepository,
	publisher notifications.Publisher,
) *ModerationQueueService {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &ModerationQueueService{
		queueRepo:  queueRepo,
		reportRepo: reportRepo,
		resultRepo: resultRepo,
		actionRepo: actionRepo,
		publisher:  publisher,
		logger:     observability.NewServiceLogger("queue"),
	}
}

// AddToQueue creates a new pending item unconditionally. Screening-driven
// enqueues do not dedupe; only report intake merges into open items. An
// empty priority defaults to medium.
func (s *ModerationQueueService) AddToQueue(
	ctx context.Context,
	contentID string,
	contentType models.ContentType,
	flags []models.ModerationFlag,
	priority models.QueuePriority,
) (string, error) {
	if priority == "" {
		priority = models.PriorityMedium
	}

	item := &models.QueueItem{
		ContentID:   contentID,
		ContentType: contentType,
		Priority:    priority,
		Status:      models.QueuePending,
		Flags:       flags,
	}
	if err := s.queueRepo.Create(ctx, item); err != nil {
		return "", err
	}

	s.publish(ctx, notifications.EventQueueItemAdded, map[string]any{
		"queue_item_id": item.ID,
		"content_id":    contentID,
		"content_type":  contentType,
		"priority":      priority,
	})
	s.logger.LogCall(ctx, "AddToQueue", map[string]interface{}{
		"queue_item_id": item.ID,
		"priority":      priority,
	})
	return item.ID, nil
}

// SubmitUserReport records a user complaint. The report always persists;
// it then merges into the open queue item for the same content, or creates
// a new item with priority derived from the reason. Three or more reports
// escalate an item to high priority; urgent items are never touched.
func (s *ModerationQueueService) SubmitUserReport(
	ctx context.Context,
	reporterID string,
	contentID string,
	contentType models.ContentType,
	reason models.ReportReason,
	description string,
) (string, error) {
	if err := validation.ValidateReportReason(reason); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	// Serialize find-or-create per content so two reporters racing on the
	// same content cannot produce duplicate open items.
	key := contentID + "/" + string(contentType)
	s.contentLocks.Lock(key)
	defer s.contentLocks.Unlock(key)

	item, err := s.queueRepo.FindOpenByContent(ctx, contentID, contentType)
	if err != nil {
		return "", err
	}

	report := &models.UserReport{
		ReporterID:  reporterID,
		ContentID:   contentID,
		ContentType: contentType,
		Reason:      reason,
		Description: description,
		Status:      models.ReportPending,
	}

	if item == nil {
		item = &models.QueueItem{
			ContentID:   contentID,
			ContentType: contentType,
			Priority:    models.ReportPriority(reason),
			Status:      models.QueuePending,
			Flags: []models.ModerationFlag{{
				Type:        models.ReportFlagType(reason),
				Severity:    models.SeverityMedium,
				Confidence:  reportFlagConfidence,
				Description: fmt.Sprintf("Reported by a user for %s", reason),
				DetectedBy:  models.DetectedByUserReport,
				CreatedAt:   time.Now().UTC(),
			}},
		}
		if err := s.queueRepo.Create(ctx, item); err != nil {
			return "", err
		}
		s.publish(ctx, notifications.EventQueueItemAdded, map[string]any{
			"queue_item_id": item.ID,
			"content_id":    contentID,
			"content_type":  contentType,
			"priority":      item.Priority,
		})
	}

	report.QueueItemID = &item.ID
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return "", err
	}

	reportCount := len(item.Reports) + 1
	if reportCount >= escalationReportCount &&
		item.Priority != models.PriorityUrgent && item.Priority != models.PriorityHigh {
		if err := s.queueRepo.UpdatePriority(ctx, item.ID, models.PriorityHigh); err != nil {
			return "", err
		}
	}

	observability.ReportsTotal.WithLabelValues(string(reason)).Inc()
	s.publish(ctx, notifications.EventReportSubmitted, map[string]any{
		"report_id":     report.ID,
		"queue_item_id": item.ID,
		"reason":        reason,
	})
	return report.ID, nil
}

// FindOpenItem returns the non-completed queue item for a content id, or
// nil when the content is not currently queued.
func (s *ModerationQueueService) FindOpenItem(ctx context.Context, contentID string, contentType models.ContentType) (*models.QueueItem, error) {
	return s.queueRepo.FindOpenByContent(ctx, contentID, contentType)
}

// GetPendingItems returns pending queue items, most urgent first and FIFO
// within equal priority, truncated to limit (default 50).
func (s *ModerationQueueService) GetPendingItems(
	ctx context.Context,
	assignedTo *string,
	priority *models.QueuePriority,
	limit int,
) ([]*models.QueueItem, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}

	items, err := s.queueRepo.ListPending(ctx, assignedTo, priority)
	if err != nil {
		return nil, err
	}

	// The store returns items oldest-first; a stable sort on priority rank
	// keeps the FIFO order within each priority band.
	sortByPriority(items)

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// AssignToModerator moves a pending item to in_review and records the
// assignee. Returns false when the item does not exist or is no longer
// pending; a lost race is a no-op signal, not an error.
func (s *ModerationQueueService) AssignToModerator(ctx context.Context, queueID, moderatorID string) (bool, error) {
	assigned, err := s.queueRepo.TransitionToInReview(ctx, queueID, moderatorID)
	if err != nil || !assigned {
		return false, err
	}
	s.logger.LogCall(ctx, "AssignToModerator", map[string]interface{}{
		"queue_item_id": queueID,
		"moderator_id":  moderatorID,
	})
	return true, nil
}

// CompleteReview finishes an in_review item. Only the assigned moderator
// may complete it; anyone else gets a false no-op. On success a manual
// verdict is recorded at confidence 1.0, the item's reports are closed and
// an audit action is written.
func (s *ModerationQueueService) CompleteReview(
	ctx context.Context,
	queueID string,
	moderatorID string,
	decision models.ModerationStatus,
	notes string,
) (bool, error) {
	item, err := s.queueRepo.GetByID(ctx, queueID)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	completed, err := s.queueRepo.CompleteReview(ctx, queueID, moderatorID)
	if err != nil || !completed {
		return false, err
	}

	now := time.Now().UTC()

	// The manual verdict inherits the item's creation time so the gap to
	// ReviewedAt measures how long the content waited for a human.
	result := &models.ContentModerationResult{
		ContentID:   item.ContentID,
		ContentType: item.ContentType,
		Status:      decision,
		Confidence:  1.0,
		Flags:       item.Flags,
		ReviewedBy:  &moderatorID,
		ReviewedAt:  &now,
		CreatedAt:   item.CreatedAt,
	}
	if err := s.resultRepo.Create(ctx, result); err != nil {
		return true, err
	}

	if err := s.reportRepo.MarkReviewedByQueueItem(ctx, queueID, moderatorID, reportOutcome(decision)); err != nil {
		s.logger.LogError(ctx, "CompleteReview", err)
	}

	action := &models.ModerationAction{
		ModeratorID: moderatorID,
		ActionType:  actionForDecision(decision),
		TargetType:  string(item.ContentType),
		TargetID:    item.ContentID,
		Reason:      notes,
		Severity:    models.SeverityMedium,
	}
	if err := s.actionRepo.Create(ctx, action); err != nil {
		s.logger.LogError(ctx, "CompleteReview", err)
	}

	observability.ObserveReviewLatency(item.CreatedAt, now)
	s.publish(ctx, notifications.EventReviewCompleted, map[string]any{
		"queue_item_id": queueID,
		"moderator_id":  moderatorID,
		"decision":      decision,
	})
	return true, nil
}

// publish sends an event best-effort; delivery failure never fails the
// operation that produced it.
func (s *ModerationQueueService) publish(ctx context.Context, eventType notifications.EventType, payload map[string]any) {
	if err := s.publisher.Publish(ctx, notifications.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.LogError(ctx, "publish", err)
	}
}

// reportOutcome maps a review decision to the closing status of the item's
// reports: a rejection upholds the reports, an approval dismisses them.
func reportOutcome(decision models.ModerationStatus) models.ReportStatus {
	switch decision {
	case models.StatusRejected:
		return models.ReportResolved
	case models.StatusApproved:
		return models.ReportDismissed
	default:
		return models.ReportReviewed
	}
}

func actionForDecision(decision models.ModerationStatus) models.ActionType {
	if decision == models.StatusRejected {
		return models.ActionReject
	}
	return models.ActionApprove
}

// sortByPriority orders items by priority rank descending. The sort is
// stable so the store's oldest-first order survives within a band.
func sortByPriority(items []*models.QueueItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return models.PriorityRank(items[i].Priority) > models.PriorityRank(items[j].Priority)
	})
}

// keyedMutex serializes critical sections per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}
