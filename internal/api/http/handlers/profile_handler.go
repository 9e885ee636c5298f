package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hms-service/internal/api/dto"
	"github.com/spec-kit/hms-service/internal/service"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me handles GET /v1/users/me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.profiles.Get(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(user)})
}

// UpdateMe handles PATCH /v1/users/me.
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.profiles.Rename(c.UserContext(), actor, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(user)})
}
