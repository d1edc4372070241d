// Package community implements moderator appointments, the permission
// model, user bans, appeals and bulk moderation.
package community

import (
	"context"
	"fmt"
	"time"

	"gatekeeper/internal/cache"
	"gatekeeper/internal/models"
	"gatekeeper/internal/notifications"
	"gatekeeper/internal/observability"
	"gatekeeper/internal/queue"
	"gatekeeper/internal/repository"
)

// CommunityModerationService manages who moderates, who is banned and how
// contested decisions get overturned. Authorization failures surface as
// AppError values; lost races and stale state come back as boolean no-ops.
type CommunityModerationService struct {
	moderatorRepo repository.ModeratorRepository
	banRepo       repository.BanRepository
	appealRepo    repository.AppealRepository
	actionRepo    repository.ActionRepository
	reportRepo    repository.ReportRepository

	queueService *queue.ModerationQueueService
	publisher    notifications.Publisher
	logger       *observability.ServiceLogger
}

// NewCommunityModerationService creates the community moderation service.
func NewCommunityModerationService(
	moderatorRepo repository.ModeratorRepository,
	banRepo repository.BanRepository,
	appealRepo repository.AppealRepository,
	actionRepo repository.ActionRepository,
	reportRepo repository.ReportRepository,
	queueService *queue.ModerationQueueService,
	publisher notifications.Publisher,
) *CommunityModerationService {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &CommunityModerationService{
		moderatorRepo: moderatorRepo,
		banRepo:       banRepo,
		appealRepo:    appealRepo,
		actionRepo:    actionRepo,
		reportRepo:    reportRepo,
		queueService:  queueService,
		publisher:     publisher,
		logger:        observability.NewServiceLogger("community"),
	}
}

// AppointModerator grants a user moderation authority in a community. The
// role string is informational; authority comes from the permission list.
func (s *CommunityModerationService) AppointModerator(
	ctx context.Context,
	appointedBy string,
	userID string,
	communityID string,
	role models.ModeratorRole,
	permissions []models.Permission,
) (*models.CommunityModerator, error) {
	mod := &models.CommunityModerator{
		UserID:      userID,
		CommunityID: communityID,
		Role:        role,
		Permissions: permissions,
		IsActive:    true,
		AppointedBy: appointedBy,
	}
	if err := s.moderatorRepo.Create(ctx, mod); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.ModeratorKey(communityID))
	s.logger.LogCall(ctx, "AppointModerator", map[string]interface{}{
		"moderator_id": mod.ID,
		"user_id":      userID,
		"community_id": communityID,
	})
	return mod, nil
}

// RemoveModerator deactivates a user's appointment in a community. Returns
// false when no active appointment existed.
func (s *CommunityModerationService) RemoveModerator(ctx context.Context, userID, communityID string) (bool, error) {
	removed, err := s.moderatorRepo.Deactivate(ctx, userID, communityID)
	if err != nil || !removed {
		return false, err
	}
	cache.Invalidate(ctx, cache.ModeratorKey(communityID))
	return true, nil
}

// GetCommunityModerators lists the active moderators of a community.
func (s *CommunityModerationService) GetCommunityModerators(ctx context.Context, communityID string) ([]*models.CommunityModerator, error) {
	key := cache.ModeratorKey(communityID)
	var cached []*models.CommunityModerator
	if cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	mods, err := s.moderatorRepo.ListActiveByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, key, mods, cache.ModeratorTTL)
	return mods, nil
}

// HasPermission reports whether the user holds the given action, either
// globally or scoped to the community. An empty communityID asks for the
// action anywhere, so any grant suffices.
func (s *CommunityModerationService) HasPermission(ctx context.Context, userID, action, communityID string) (bool, error) {
	mods, err := s.moderatorRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, mod := range mods {
		if mod.Allows(action, communityID) {
			return true, nil
		}
	}
	return false, nil
}

// BanUser blocks a user from a community, or everywhere when communityID is
// nil. The caller must hold ban_users for the target scope; a temporary ban
// expires durationHours from now. Every ban writes a high-severity audit
// action.
func (s *CommunityModerationService) BanUser(
	ctx context.Context,
	bannedBy string,
	userID string,
	communityID *string,
	banType models.BanType,
	reason string,
	durationHours int,
) (*models.UserBan, error) {
	scope := ""
	if communityID != nil {
		scope = *communityID
	}
	if err := s.requirePermission(ctx, bannedBy, models.PermBanUsers, scope); err != nil {
		return nil, err
	}

	if banType == models.BanTemporary && durationHours <= 0 {
		return nil, models.NewValidationError("temporary bans require a positive duration")
	}

	ban := &models.UserBan{
		UserID:      userID,
		CommunityID: communityID,
		BanType:     banType,
		Reason:      reason,
		BannedBy:    bannedBy,
		IsActive:    true,
	}
	if banType == models.BanTemporary {
		expires := time.Now().UTC().Add(time.Duration(durationHours) * time.Hour)
		ban.ExpiresAt = &expires
	}
	if err := s.banRepo.Create(ctx, ban); err != nil {
		return nil, err
	}

	action := &models.ModerationAction{
		ModeratorID: bannedBy,
		ActionType:  models.ActionBanUser,
		TargetType:  "user",
		TargetID:    userID,
		Reason:      reason,
		Severity:    models.SeverityHigh,
		CommunityID: communityID,
	}
	if err := s.actionRepo.Create(ctx, action); err != nil {
		s.logger.LogError(ctx, "BanUser", err)
	}

	s.invalidateBanCache(ctx, userID)
	s.publish(ctx, notifications.EventBanIssued, map[string]any{
		"ban_id":       ban.ID,
		"user_id":      userID,
		"community_id": communityID,
		"ban_type":     banType,
	})
	return ban, nil
}

// UnbanUser lifts an active ban. The caller needs the same permission that
// banning required. Returns false when the ban was already inactive.
func (s *CommunityModerationService) UnbanUser(ctx context.Context, unbannedBy, banID string) (bool, error) {
	ban, err := s.banRepo.GetByID(ctx, banID)
	if err != nil {
		return false, err
	}
	if ban == nil {
		return false, nil
	}

	scope := ""
	if ban.CommunityID != nil {
		scope = *ban.CommunityID
	}
	if err := s.requirePermission(ctx, unbannedBy, models.PermBanUsers, scope); err != nil {
		return false, err
	}

	lifted, err := s.banRepo.Deactivate(ctx, banID)
	if err != nil || !lifted {
		return false, err
	}

	s.invalidateBanCache(ctx, ban.UserID)
	s.publish(ctx, notifications.EventBanLifted, map[string]any{
		"ban_id":  banID,
		"user_id": ban.UserID,
	})
	return true, nil
}

// IsUserBanned reports whether any active, unexpired ban blocks the user in
// the given community. A global ban blocks everywhere regardless of the
// community asked about.
func (s *CommunityModerationService) IsUserBanned(ctx context.Context, userID, communityID string) (bool, error) {
	key := cache.UserBanKey(userID, communityID)
	var banned bool
	if cache.GetJSON(ctx, key, &banned) {
		return banned, nil
	}

	bans, err := s.banRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	for _, ban := range bans {
		if ban.Expired(now) {
			continue
		}
		if ban.AppliesTo(communityID) {
			banned = true
			break
		}
	}
	cache.SetJSON(ctx, key, banned, cache.UserBanTTL)
	return banned, nil
}

// ExpireTemporaryBans deactivates every active ban whose expiry has passed
// and returns the count. The sweep is idempotent; the scheduler calls it
// periodically.
func (s *CommunityModerationService) ExpireTemporaryBans(ctx context.Context) (int64, error) {
	expired, err := s.banRepo.ExpireBefore(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		// ExpireBefore reports only a count, so the sweep cannot target
		// individual users. Drop every cached ban answer instead.
		cache.InvalidatePattern(ctx, cache.BanKeysPattern)
		s.logger.LogCall(ctx, "ExpireTemporaryBans", map[string]interface{}{"expired": expired})
	}
	return expired, nil
}

// SubmitAppeal files a contest against a moderation decision. Any user may
// appeal; no authorization applies.
func (s *CommunityModerationService) SubmitAppeal(
	ctx context.Context,
	userID string,
	appealType models.AppealType,
	originalDecisionID string,
	reason string,
) (*models.Appeal, error) {
	appeal := &models.Appeal{
		UserID:             userID,
		Type:               appealType,
		OriginalDecisionID: originalDecisionID,
		Reason:             reason,
		Status:             models.AppealPending,
	}
	if err := s.appealRepo.Create(ctx, appeal); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventAppealSubmitted, map[string]any{
		"appeal_id": appeal.ID,
		"user_id":   userID,
		"type":      appealType,
	})
	return appeal, nil
}

// ReviewAppeal decides a pending appeal. The reviewer must hold the
// handle_appeals permission. Approval reverses the original decision: a
// banned user's ban is deactivated directly; content restoration and
// account unsuspension are emitted as events for the host system. Returns
// false when the appeal was not pending (already decided, or lost a race).
func (s *CommunityModerationService) ReviewAppeal(
	ctx context.Context,
	reviewerID string,
	appealID string,
	approve bool,
	resolution string,
) (bool, error) {
	if err := s.requirePermission(ctx, reviewerID, models.PermHandleAppeals, ""); err != nil {
		return false, err
	}

	appeal, err := s.appealRepo.GetByID(ctx, appealID)
	if err != nil {
		return false, err
	}
	if appeal == nil {
		return false, nil
	}

	status := models.AppealRejected
	if approve {
		status = models.AppealApproved
	}
	decided, err := s.appealRepo.DecideIfPending(ctx, appealID, status, reviewerID, resolution)
	if err != nil || !decided {
		return false, err
	}

	if approve {
		s.reverseDecision(ctx, appeal)
	}

	s.publish(ctx, notifications.EventAppealDecided, map[string]any{
		"appeal_id": appealID,
		"status":    status,
	})
	return true, nil
}

// reverseDecision undoes whatever the approved appeal contested.
func (s *CommunityModerationService) reverseDecision(ctx context.Context, appeal *models.Appeal) {
	switch appeal.Type {
	case models.AppealUserBan:
		ban, err := s.banRepo.GetByID(ctx, appeal.OriginalDecisionID)
		if err != nil {
			s.logger.LogError(ctx, "reverseDecision", err)
			return
		}
		if ban == nil {
			return
		}
		if _, err := s.banRepo.Deactivate(ctx, ban.ID); err != nil {
			s.logger.LogError(ctx, "reverseDecision", err)
			return
		}
		s.invalidateBanCache(ctx, ban.UserID)
		s.publish(ctx, notifications.EventBanLifted, map[string]any{
			"ban_id":  ban.ID,
			"user_id": ban.UserID,
		})

	case models.AppealContentRemoval:
		s.publish(ctx, notifications.EventContentRestoreRequest, map[string]any{
			"decision_id": appeal.OriginalDecisionID,
			"user_id":     appeal.UserID,
		})

	case models.AppealAccountSuspension:
		s.publish(ctx, notifications.EventUserUnsuspendRequest, map[string]any{
			"decision_id": appeal.OriginalDecisionID,
			"user_id":     appeal.UserID,
		})
	}
}

// GetPendingAppeals lists appeals awaiting a decision, oldest first.
func (s *CommunityModerationService) GetPendingAppeals(ctx context.Context) ([]*models.Appeal, error) {
	return s.appealRepo.ListPending(ctx)
}

// BulkResult summarizes a bulk moderation run.
type BulkResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// BulkModerate applies one decision across many content items. Each item is
// claimed and completed independently; a failure on one item never aborts
// the rest, it is captured in the summary.
func (s *CommunityModerationService) BulkModerate(
	ctx context.Context,
	contentIDs []string,
	contentType models.ContentType,
	approve bool,
	moderatorID string,
	reason string,
) (*BulkResult, error) {
	if err := s.requirePermission(ctx, moderatorID, models.PermReviewContent, ""); err != nil {
		return nil, err
	}

	decision := models.StatusRejected
	if approve {
		decision = models.StatusApproved
	}

	result := &BulkResult{}
	for _, contentID := range contentIDs {
		if err := s.moderateOne(ctx, contentID, contentType, decision, moderatorID, reason); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", contentID, err))
			continue
		}
		result.Success++
	}
	return result, nil
}

// moderateOne claims the open queue item for one content id and completes
// its review with the bulk decision.
func (s *CommunityModerationService) moderateOne(
	ctx context.Context,
	contentID string,
	contentType models.ContentType,
	decision models.ModerationStatus,
	moderatorID string,
	reason string,
) error {
	target, err := s.queueService.FindOpenItem(ctx, contentID, contentType)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("no open queue item for content")
	}

	// Claim the item when it is still pending. A false return can mean it
	// is already in review, possibly by this very moderator, so completion
	// below decides the final outcome either way.
	if _, err := s.queueService.AssignToModerator(ctx, target.ID, moderatorID); err != nil {
		return err
	}

	completed, err := s.queueService.CompleteReview(ctx, target.ID, moderatorID, decision, reason)
	if err != nil {
		return err
	}
	if !completed {
		return fmt.Errorf("queue item claimed by another moderator")
	}
	return nil
}

// requirePermission converts a missing grant into an authorization error.
func (s *CommunityModerationService) requirePermission(ctx context.Context, userID, action, communityID string) error {
	allowed, err := s.HasPermission(ctx, userID, action, communityID)
	if err != nil {
		return err
	}
	if !allowed {
		return models.NewForbiddenError(fmt.Sprintf("user %s lacks the %s permission", userID, action))
	}
	return nil
}

// invalidateBanCache drops every cached ban answer for the user. A global
// ban flips the answer for every community scope, not just the one the ban
// names, so all of the user's keys go.
func (s *CommunityModerationService) invalidateBanCache(ctx context.Context, userID string) {
	cache.InvalidatePattern(ctx, cache.UserBanPattern(userID))
}

func (s *CommunityModerationService) publish(ctx context.Context, eventType notifications.EventType, payload map[string]any) {
	if err := s.publisher.Publish(ctx, notifications.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.LogError(ctx, "publish", err)
	}
}
