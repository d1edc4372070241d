package server

import (
	"github.com/gofiber/fiber/v2"

	"gatekeeper/internal/models"
	"gatekeeper/internal/screening"
)

type screenContentRequest struct {
	ContentID   string             `json:"content_id"`
	ContentType models.ContentType `json:"content_type"`
	Content     screening.Content  `json:"content"`
}

// ScreenContent runs automated screening over one content item and, when
// the verdict asks for human eyes, enqueues it for review.
func (s *Server) ScreenContent(c *fiber.Ctx) error {
	var req screenContentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ContentID == "" || req.ContentType == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("content_id and content_type are required"))
	}

	ctx := c.UserContext()
	result := s.screeningService.ScreenContent(ctx, req.ContentID, req.ContentType, req.Content)

	// Borderline verdicts go to the queue so a moderator sees them.
	if result.Status == models.StatusPendingReview || result.Status == models.StatusFlagged {
		priority := models.PriorityMedium
		if result.Status == models.StatusPendingReview {
			priority = models.PriorityHigh
		}
		if _, err := s.queueService.AddToQueue(ctx, req.ContentID, req.ContentType, result.Flags, priority); err != nil {
			return respondServiceError(c, err)
		}
	}

	return c.JSON(result)
}

// GetRules returns the current moderation rule set.
func (s *Server) GetRules(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermManageRules, ""); err != nil {
		return nil
	}
	return c.JSON(s.screeningService.GetRules())
}

// AddRule creates a new moderation rule.
func (s *Server) AddRule(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermManageRules, ""); err != nil {
		return nil
	}

	var rule models.ModerationRule
	if err := parseBody(c, &rule); err != nil {
		return nil
	}

	created, err := s.screeningService.AddRule(c.UserContext(), &rule)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateRule applies a partial edit to an existing rule.
func (s *Server) UpdateRule(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermManageRules, ""); err != nil {
		return nil
	}
	id, err := requireParam(c, "id", "rule ID")
	if err != nil {
		return nil
	}

	var update models.RuleUpdate
	if err := parseBody(c, &update); err != nil {
		return nil
	}

	updated, err := s.screeningService.UpdateRule(c.UserContext(), id, update)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(updated)
}

// DeleteRule removes a rule from the set.
func (s *Server) DeleteRule(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermManageRules, ""); err != nil {
		return nil
	}
	id, err := requireParam(c, "id", "rule ID")
	if err != nil {
		return nil
	}

	deleted, err := s.screeningService.DeleteRule(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !deleted {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Rule", id))
	}
	return c.JSON(fiber.Map{"message": "Rule deleted"})
}

// GetScreeningConfig returns the current verdict thresholds.
func (s *Server) GetScreeningConfig(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermManageRules, ""); err != nil {
		return nil
	}
	return c.JSON(s.screeningService.GetConfig())
}

// UpdateScreeningConfig merges a partial threshold update.
func (s *Server) UpdateScreeningConfig(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermManageRules, ""); err != nil {
		return nil
	}

	var update screening.ConfigUpdate
	if err := parseBody(c, &update); err != nil {
		return nil
	}

	cfg, err := s.screeningService.UpdateConfig(update)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(cfg)
}
