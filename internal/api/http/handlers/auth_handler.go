package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hms-service/internal/api/dto"
	"github.com/spec-kit/hms-service/internal/service"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// AuthHandler exposes credential exchange endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			User:    dto.NewProfileResponse(user),
			Access:  dto.TokenResponse{Token: pair.Access.Value, ExpiresAt: pair.Access.ExpiresAt},
			Refresh: dto.TokenResponse{Token: pair.Refresh.Value, ExpiresAt: pair.Refresh.ExpiresAt},
		},
	})
}

// Refresh handles POST /v1/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refresh_token required", nil)
	}

	access, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.TokenResponse{Token: access.Value, ExpiresAt: access.ExpiresAt},
	})
}
