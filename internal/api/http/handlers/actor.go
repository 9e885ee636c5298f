package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hms-service/internal/auth"
	"github.com/spec-kit/hms-service/internal/events"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// actorFromContext identifies the caller from the claims the gate attached.
// The first role in the token is treated as the acting role.
func actorFromContext(c *fiber.Ctx) (events.Actor, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok || claims.Subject == "" {
		return events.Actor{}, apperrors.NewUnauthorized("user required")
	}
	actor := events.Actor{ID: claims.Subject}
	if len(claims.Role) > 0 {
		actor.Role = claims.Role[0]
	}
	return actor, nil
}
