package auth

import (
	"bytes"
	"encoding/json"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/hms-service/internal/domain"
)

// Claims describes the JWT payload shared by access and refresh tokens.
type Claims struct {
	Role    RoleSet             `json:"role,omitempty"`
	Email   string              `json:"email,omitempty"`
	Purpose domain.TokenPurpose `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// RoleSet holds the caller's roles. The token may carry a single string or an array.
type RoleSet []domain.Role

// UnmarshalJSON accepts both "DOCTOR" and ["DOCTOR","ADMIN"].
func (r *RoleSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var roles []domain.Role
		if err := json.Unmarshal(data, &roles); err != nil {
			return err
		}
		*r = roles
		return nil
	}

	var role domain.Role
	if err := json.Unmarshal(data, &role); err != nil {
		return err
	}
	if role == "" {
		*r = RoleSet{}
		return nil
	}
	*r = RoleSet{role}
	return nil
}

// MarshalJSON writes a single role as a plain string.
func (r RoleSet) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(string(r[0]))
	}
	return json.Marshal([]domain.Role(r))
}

// Has reports whether the set contains role.
func (r RoleSet) Has(role domain.Role) bool {
	for _, candidate := range r {
		if candidate == role {
			return true
		}
	}
	return false
}

// Intersects reports whether any of the required roles is present.
func (r RoleSet) Intersects(required []domain.Role) bool {
	for _, role := range required {
		if r.Has(role) {
			return true
		}
	}
	return false
}
