package queue

import (
	"context"
	"time"

	"gatekeeper/internal/models"
	"gatekeeper/internal/observability"
)

// ModeratorStats summarizes one moderator's reviewing activity.
type ModeratorStats struct {
	Reviewed    int     `json:"reviewed"`
	Approved    int     `json:"approved"`
	Rejected    int     `json:"rejected"`
	AverageTime float64 `json:"average_time_seconds"`
}

// QueueStats is the aggregate picture of moderation throughput.
type QueueStats struct {
	Total                 int                        `json:"total"`
	AutoApproved          int                        `json:"auto_approved"`
	AutoRejected          int                        `json:"auto_rejected"`
	Flagged               int                        `json:"flagged"`
	PendingReview         int64                      `json:"pending_review"`
	AverageProcessingTime float64                    `json:"average_processing_time_seconds"`
	FlagsByCategory       map[models.FlagType]int    `json:"flags_by_category"`
	ModeratorStats        map[string]*ModeratorStats `json:"moderator_stats"`
}

// GetStats computes throughput statistics over the given time range. Nil
// bounds mean unbounded. The pending count comes from the live queue and
// ignores the range.
func (s *ModerationQueueService) GetStats(ctx context.Context, since, until *time.Time) (*QueueStats, error) {
	results, err := s.resultRepo.ListSince(ctx, since, until)
	if err != nil {
		return nil, err
	}

	counts, err := s.queueRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for status, n := range counts {
		observability.QueueDepth.WithLabelValues(string(status)).Set(float64(n))
	}

	stats := &QueueStats{
		Total: len(results),

		// PendingReview counts every open queue item, claimed or not; an
		// item a moderator is sitting on is still awaiting a verdict.
		// Flagged below counts automated flagged verdicts that no human
		// has touched, so the two move independently.
		PendingReview:   counts[models.QueuePending] + counts[models.QueueInReview],
		FlagsByCategory: make(map[models.FlagType]int),
		ModeratorStats:  make(map[string]*ModeratorStats),
	}

	var totalProcessing float64
	var reviewedCount int
	for _, result := range results {
		if result.ReviewedBy == nil {
			switch result.Status {
			case models.StatusApproved:
				stats.AutoApproved++
			case models.StatusRejected:
				stats.AutoRejected++
			case models.StatusFlagged:
				stats.Flagged++
			}
		}
		for _, f := range result.Flags {
			stats.FlagsByCategory[f.Type]++
		}

		if result.ReviewedBy == nil || result.ReviewedAt == nil {
			continue
		}
		elapsed := result.ReviewedAt.Sub(result.CreatedAt).Seconds()
		totalProcessing += elapsed
		reviewedCount++

		ms, ok := stats.ModeratorStats[*result.ReviewedBy]
		if !ok {
			ms = &ModeratorStats{}
			stats.ModeratorStats[*result.ReviewedBy] = ms
		}
		ms.Reviewed++
		switch result.Status {
		case models.StatusApproved:
			ms.Approved++
		case models.StatusRejected:
			ms.Rejected++
		}
		// Running average over this moderator's reviews.
		ms.AverageTime += (elapsed - ms.AverageTime) / float64(ms.Reviewed)
	}

	if reviewedCount > 0 {
		stats.AverageProcessingTime = totalProcessing / float64(reviewedCount)
	}
	return stats, nil
}

// Cleanup purges completed queue items and closed reports older than the
// cutoff by update time, and moderation results older than it by creation
// time. Returns the total number of rows removed. This is the only path
// that permanently deletes moderation history.
func (s *ModerationQueueService) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = defaultRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	var removed int64

	n, err := s.queueRepo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	removed += n

	n, err = s.reportRepo.DeleteClosedBefore(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	removed += n

	n, err = s.resultRepo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	removed += n

	s.logger.LogCall(ctx, "Cleanup", map[string]interface{}{
		"cutoff":  cutoff,
		"removed": removed,
	})
	return removed, nil
}
