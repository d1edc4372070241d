package server

import (
	"github.com/gofiber/fiber/v2"

	"gatekeeper/internal/models"
)

type appointModeratorRequest struct {
	UserID      string              `json:"user_id"`
	Role        models.ModeratorRole `json:"role"`
	Permissions []models.Permission  `json:"permissions"`
}

// AppointModerator grants a user moderation authority in a community.
func (s *Server) AppointModerator(c *fiber.Ctx) error {
	communityID, err := requireParam(c, "communityId", "community ID")
	if err != nil {
		return nil
	}
	if err := s.requirePermission(c, models.PermManageRules, communityID); err != nil {
		return nil
	}

	var req appointModeratorRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.UserID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}
	if req.Role == "" {
		req.Role = models.RoleModerator
	}

	mod, err := s.communityService.AppointModerator(
		c.UserContext(), currentUserID(c), req.UserID, communityID, req.Role, req.Permissions)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mod)
}

// RemoveModerator revokes a user's appointment in a community.
func (s *Server) RemoveModerator(c *fiber.Ctx) error {
	communityID, err := requireParam(c, "communityId", "community ID")
	if err != nil {
		return nil
	}
	userID, err := requireParam(c, "userId", "user ID")
	if err != nil {
		return nil
	}
	if err := s.requirePermission(c, models.PermManageRules, communityID); err != nil {
		return nil
	}

	removed, err := s.communityService.RemoveModerator(c.UserContext(), userID, communityID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !removed {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Moderator", userID))
	}
	return c.JSON(fiber.Map{"message": "Moderator removed"})
}

// GetCommunityModerators lists a community's active moderators.
func (s *Server) GetCommunityModerators(c *fiber.Ctx) error {
	communityID, err := requireParam(c, "communityId", "community ID")
	if err != nil {
		return nil
	}

	mods, err := s.communityService.GetCommunityModerators(c.UserContext(), communityID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(mods)
}

type banUserRequest struct {
	UserID        string         `json:"user_id"`
	CommunityID   *string        `json:"community_id,omitempty"`
	BanType       models.BanType `json:"ban_type"`
	Reason        string         `json:"reason"`
	DurationHours int            `json:"duration_hours,omitempty"`
}

// BanUser blocks a user from a community, or globally.
func (s *Server) BanUser(c *fiber.Ctx) error {
	var req banUserRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.UserID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}
	if req.BanType != models.BanTemporary && req.BanType != models.BanPermanent {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("ban_type must be temporary or permanent"))
	}

	ban, err := s.communityService.BanUser(
		c.UserContext(), currentUserID(c), req.UserID, req.CommunityID, req.BanType, req.Reason, req.DurationHours)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ban)
}

// UnbanUser lifts an active ban.
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	banID, err := requireParam(c, "id", "ban ID")
	if err != nil {
		return nil
	}

	lifted, err := s.communityService.UnbanUser(c.UserContext(), currentUserID(c), banID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !lifted {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Active ban", banID))
	}
	return c.JSON(fiber.Map{"message": "Ban lifted"})
}

// IsUserBanned reports whether a user is currently banned. The optional
// community query parameter scopes the check; global bans match regardless.
func (s *Server) IsUserBanned(c *fiber.Ctx) error {
	userID, err := requireParam(c, "userId", "user ID")
	if err != nil {
		return nil
	}

	banned, err := s.communityService.IsUserBanned(c.UserContext(), userID, c.Query("community_id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"banned": banned})
}

type submitAppealRequest struct {
	Type               models.AppealType `json:"type"`
	OriginalDecisionID string            `json:"original_decision_id"`
	Reason             string            `json:"reason"`
}

// SubmitAppeal files a contest against a moderation decision.
func (s *Server) SubmitAppeal(c *fiber.Ctx) error {
	var req submitAppealRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.OriginalDecisionID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("original_decision_id is required"))
	}

	appeal, err := s.communityService.SubmitAppeal(
		c.UserContext(), currentUserID(c), req.Type, req.OriginalDecisionID, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appeal)
}

// GetPendingAppeals lists appeals awaiting a decision.
func (s *Server) GetPendingAppeals(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermHandleAppeals, ""); err != nil {
		return nil
	}

	appeals, err := s.communityService.GetPendingAppeals(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(appeals)
}

type reviewAppealRequest struct {
	Approve    bool   `json:"approve"`
	Resolution string `json:"resolution"`
}

// ReviewAppeal decides a pending appeal.
func (s *Server) ReviewAppeal(c *fiber.Ctx) error {
	appealID, err := requireParam(c, "id", "appeal ID")
	if err != nil {
		return nil
	}

	var req reviewAppealRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	decided, err := s.communityService.ReviewAppeal(
		c.UserContext(), currentUserID(c), appealID, req.Approve, req.Resolution)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !decided {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("Appeal is not pending"))
	}
	return c.JSON(fiber.Map{"message": "Appeal decided"})
}

type bulkModerateRequest struct {
	ContentIDs  []string           `json:"content_ids"`
	ContentType models.ContentType `json:"content_type"`
	Approve     bool               `json:"approve"`
	Reason      string             `json:"reason"`
}

// BulkModerate applies one decision across many content items.
func (s *Server) BulkModerate(c *fiber.Ctx) error {
	var req bulkModerateRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if len(req.ContentIDs) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("content_ids is required"))
	}

	result, err := s.communityService.BulkModerate(
		c.UserContext(), req.ContentIDs, req.ContentType, req.Approve, currentUserID(c), req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetModerationDashboard returns the aggregate moderation view.
func (s *Server) GetModerationDashboard(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermViewDashboard, ""); err != nil {
		return nil
	}

	dashboard, err := s.communityService.GetModerationDashboard(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(dashboard)
}

// GetUserModerationHistory returns a user's full moderation record.
func (s *Server) GetUserModerationHistory(c *fiber.Ctx) error {
	userID, err := requireParam(c, "userId", "user ID")
	if err != nil {
		return nil
	}
	if err := s.requirePermission(c, models.PermViewDashboard, ""); err != nil {
		return nil
	}

	history, err := s.communityService.GetUserModerationHistory(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(history)
}
