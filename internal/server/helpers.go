package server

import (
	"errors"

	"gatekeeper/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// currentUserID returns the authenticated user's id from locals.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}

// requireParam extracts a non-empty route parameter. On failure it writes a
// 400 JSON response and returns errResponseWritten; callers should then
// return nil.
func requireParam(c *fiber.Ctx, param, label string) (string, error) {
	value := c.Params(param)
	if value == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return "", errResponseWritten
	}
	return value, nil
}

// parseBody decodes the JSON request body. On failure it writes a 400 JSON
// response and returns errResponseWritten.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// requirePermission enforces a moderation permission for the current user.
// On failure it writes the error response and returns errResponseWritten.
func (s *Server) requirePermission(c *fiber.Ctx, action, communityID string) error {
	allowed, err := s.communityService.HasPermission(c.UserContext(), currentUserID(c), action, communityID)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusInternalServerError, err)
		return errResponseWritten
	}
	if !allowed {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Missing "+action+" permission"))
		return errResponseWritten
	}
	return nil
}

// respondServiceError maps service errors to HTTP responses: authorization
// failures become 403, validation failures 400, everything else 500.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "FORBIDDEN", "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusForbidden, err)
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, err)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}
