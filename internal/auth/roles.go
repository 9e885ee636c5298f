package auth

import (
	"github.com/spec-kit/hms-service/internal/domain"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// Authorize checks the caller's roles against the route's required roles.
// An empty requirement admits any authenticated caller; a declared
// requirement with no role claim is forbidden.
func Authorize(claims *Claims, required []domain.Role) error {
	if len(required) == 0 {
		return nil
	}
	if claims == nil || len(claims.Role) == 0 {
		return apperrors.NewForbiddenResource("no user role found in request")
	}
	if !claims.Role.Intersects(required) {
		return apperrors.NewForbiddenResource("you do not have permission to access this resource")
	}
	return nil
}
