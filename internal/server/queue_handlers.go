package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"gatekeeper/internal/models"
)

type addToQueueRequest struct {
	ContentID   string                  `json:"content_id"`
	ContentType models.ContentType      `json:"content_type"`
	Flags       []models.ModerationFlag `json:"flags"`
	Priority    models.QueuePriority    `json:"priority"`
}

// AddToQueue enqueues content for human review.
func (s *Server) AddToQueue(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermReviewContent, ""); err != nil {
		return nil
	}

	var req addToQueueRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ContentID == "" || req.ContentType == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("content_id and content_type are required"))
	}

	queueID, err := s.queueService.AddToQueue(c.UserContext(), req.ContentID, req.ContentType, req.Flags, req.Priority)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"queue_id": queueID})
}

type submitReportRequest struct {
	ContentID   string              `json:"content_id"`
	ContentType models.ContentType  `json:"content_type"`
	Reason      models.ReportReason `json:"reason"`
	Description string              `json:"description"`
}

// SubmitUserReport records a complaint from the authenticated user.
func (s *Server) SubmitUserReport(c *fiber.Ctx) error {
	var req submitReportRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ContentID == "" || req.ContentType == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("content_id and content_type are required"))
	}

	reportID, err := s.queueService.SubmitUserReport(
		c.UserContext(), currentUserID(c), req.ContentID, req.ContentType, req.Reason, req.Description)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report_id": reportID})
}

// GetPendingItems lists pending queue items, most urgent first.
func (s *Server) GetPendingItems(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermReviewContent, ""); err != nil {
		return nil
	}

	var assignedTo *string
	if v := c.Query("assigned_to"); v != "" {
		assignedTo = &v
	}
	var priority *models.QueuePriority
	if v := c.Query("priority"); v != "" {
		p := models.QueuePriority(v)
		priority = &p
	}
	limit := c.QueryInt("limit", 0)

	items, err := s.queueService.GetPendingItems(c.UserContext(), assignedTo, priority, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(items)
}

// AssignToModerator claims a pending queue item for the current user.
func (s *Server) AssignToModerator(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermReviewContent, ""); err != nil {
		return nil
	}
	queueID, err := requireParam(c, "id", "queue item ID")
	if err != nil {
		return nil
	}

	assigned, err := s.queueService.AssignToModerator(c.UserContext(), queueID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !assigned {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("Queue item is not pending"))
	}
	return c.JSON(fiber.Map{"message": "Item assigned"})
}

type completeReviewRequest struct {
	Decision models.ModerationStatus `json:"decision"`
	Notes    string                  `json:"notes"`
}

// CompleteReview finishes the current user's assigned review.
func (s *Server) CompleteReview(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermReviewContent, ""); err != nil {
		return nil
	}
	queueID, err := requireParam(c, "id", "queue item ID")
	if err != nil {
		return nil
	}

	var req completeReviewRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Decision != models.StatusApproved && req.Decision != models.StatusRejected {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("decision must be approved or rejected"))
	}

	completed, err := s.queueService.CompleteReview(c.UserContext(), queueID, currentUserID(c), req.Decision, req.Notes)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !completed {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("Queue item is not assigned to you"))
	}
	return c.JSON(fiber.Map{"message": "Review completed"})
}

// GetQueueStats reports moderation throughput over an optional time range.
func (s *Server) GetQueueStats(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermViewDashboard, ""); err != nil {
		return nil
	}

	var since, until *time.Time
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("since must be RFC 3339"))
		}
		since = &t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("until must be RFC 3339"))
		}
		until = &t
	}

	stats, err := s.queueService.GetStats(c.UserContext(), since, until)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// RunCleanup purges moderation history older than the retention window.
func (s *Server) RunCleanup(c *fiber.Ctx) error {
	if err := s.requirePermission(c, models.PermManageRules, ""); err != nil {
		return nil
	}

	olderThanDays := c.QueryInt("older_than_days", s.config.CleanupOlderThanDays)
	removed, err := s.queueService.Cleanup(c.UserContext(), olderThanDays)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}
