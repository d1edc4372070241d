package community

import (
	"context"
	"sort"
	"time"

	"gatekeeper/internal/cache"
	"gatekeeper/internal/models"
	"gatekeeper/internal/queue"
)

// ReportReasonCount is one entry of the dashboard's top report reasons.
type ReportReasonCount struct {
	Reason models.ReportReason `json:"reason"`
	Count  int                 `json:"count"`
}

// Dashboard is the read-only aggregate view for moderator tooling.
type Dashboard struct {
	Queue            *queue.QueueStats   `json:"queue"`
	ActionsToday     int64               `json:"actions_today"`
	ActiveBans       int64               `json:"active_bans"`
	PendingAppeals   int64               `json:"pending_appeals"`
	TopReportReasons []ReportReasonCount `json:"top_report_reasons"`
	ModeratorActions map[string]int64    `json:"moderator_actions_today"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// GetModerationDashboard assembles the current moderation picture. The
// result is cached briefly; it is side-effect-free and safe to poll.
func (s *CommunityModerationService) GetModerationDashboard(ctx context.Context) (*Dashboard, error) {
	var cached Dashboard
	if cache.GetJSON(ctx, cache.DashboardKey, &cached) {
		return &cached, nil
	}

	queueStats, err := s.queueService.GetStats(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	midnight := startOfToday()
	actionsToday, err := s.actionRepo.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	moderatorActions, err := s.actionRepo.CountByModeratorSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	activeBans, err := s.banRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	pendingAppeals, err := s.appealRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}

	topReasons, err := s.topReportReasons(ctx, 5)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Queue:            queueStats,
		ActionsToday:     actionsToday,
		ActiveBans:       activeBans,
		PendingAppeals:   pendingAppeals,
		TopReportReasons: topReasons,
		ModeratorActions: moderatorActions,
		GeneratedAt:      time.Now().UTC(),
	}
	cache.SetJSON(ctx, cache.DashboardKey, dashboard, cache.DashboardTTL)
	return dashboard, nil
}

// topReportReasons counts pending reports by reason and returns the n most
// frequent, ties broken alphabetically for a stable display order.
func (s *CommunityModerationService) topReportReasons(ctx context.Context, n int) ([]ReportReasonCount, error) {
	reports, err := s.reportRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ReportReason]int)
	for _, r := range reports {
		counts[r.Reason]++
	}

	out := make([]ReportReasonCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, ReportReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// UserModerationHistory is everything the system knows about one user's
// moderation record.
type UserModerationHistory struct {
	UserID  string                     `json:"user_id"`
	Bans    []*models.UserBan          `json:"bans"`
	Appeals []*models.Appeal           `json:"appeals"`
	Actions []*models.ModerationAction `json:"actions"`
	Reports []*models.UserReport       `json:"reports_filed"`
}

// GetUserModerationHistory returns the user's bans, appeals, actions taken
// against them, and the reports they have filed.
func (s *CommunityModerationService) GetUserModerationHistory(ctx context.Context, userID string) (*UserModerationHistory, error) {
	bans, err := s.banRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	appeals, err := s.appealRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	actions, err := s.actionRepo.ListByTarget(ctx, "user", userID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reportRepo.ListByReporter(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserModerationHistory{
		UserID:  userID,
		Bans:    bans,
		Appeals: appeals,
		Actions: actions,
		Reports: reports,
	}, nil
}

// startOfToday returns local midnight; the dashboard's "today" follows the
// server's timezone.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
