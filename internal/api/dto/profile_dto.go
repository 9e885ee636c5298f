package dto

import (
	"time"

	"github.com/spec-kit/hms-service/internal/domain"
)

// ProfileResponse is the public view of an account.
type ProfileResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UpdateProfileRequest payload for PATCH /v1/users/me.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// NewProfileResponse maps a user to its public view.
func NewProfileResponse(user *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Status:    user.Status,
		UpdatedAt: user.UpdatedAt,
	}
}
