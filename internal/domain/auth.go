package domain

import "time"

// TokenPurpose separates access tokens from refresh tokens sharing one signing key.
type TokenPurpose string

const (
	PurposeAccess  TokenPurpose = "access"
	PurposeRefresh TokenPurpose = "refreshToken"
)

// IssuedToken represents a signed token handed to a client.
type IssuedToken struct {
	Value     string
	Purpose   TokenPurpose
	ExpiresAt time.Time
}
