package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hms-service/internal/observability"
	"github.com/spec-kit/hms-service/internal/service"
)

// AdminHandler exposes operator endpoints.
type AdminHandler struct {
	cache   *service.CacheAdminService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(cacheAdmin *service.CacheAdminService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{cache: cacheAdmin, metrics: metrics}
}

// InvalidateCache DELETE /v1/admin/cache?pattern=.
func (h *AdminHandler) InvalidateCache(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	pattern := c.Query("pattern")
	if err := service.ValidatePattern(pattern); err != nil {
		return err
	}
	removed := h.cache.Invalidate(c.UserContext(), actor, pattern)
	return c.JSON(fiber.Map{"data": fiber.Map{"pattern": pattern, "removed": removed}})
}

// Metrics serves the in-memory counters.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
