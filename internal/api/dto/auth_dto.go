package dto

import "time"

// LoginRequest payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest payload for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse describes one issued token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse carries both tokens and the signed-in profile.
type LoginResponse struct {
	User    ProfileResponse `json:"user"`
	Access  TokenResponse   `json:"access"`
	Refresh TokenResponse   `json:"refresh"`
}
