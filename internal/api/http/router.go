package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hms-service/internal/api/http/handlers"
	"github.com/spec-kit/hms-service/internal/auth"
	"github.com/spec-kit/hms-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Profile     *handlers.ProfileHandler
	Chat        *handlers.ChatHandler
	Admin       *handlers.AdminHandler
	Gate        *auth.Gate
	MetricsPath string
}

// Routes declares every route together with its authorization policy.
func Routes(cfg RouteConfig) auth.RouteTable {
	clinical := []domain.Role{domain.RoleDoctor, domain.RoleNurse, domain.RolePatient}

	return auth.RouteTable{
		{Method: fiber.MethodGet, Path: "/health/live", Policy: auth.Public(), Handler: cfg.Health.Live},
		{Method: fiber.MethodGet, Path: "/health/ready", Policy: auth.Public(), Handler: cfg.Health.Ready},
		{Method: fiber.MethodGet, Path: cfg.MetricsPath, Policy: auth.Roles(domain.RoleAdmin), Handler: cfg.Admin.Metrics},

		{Method: fiber.MethodPost, Path: "/v1/auth/login", Policy: auth.Public(), Handler: cfg.Auth.Login},
		{Method: fiber.MethodPost, Path: "/v1/auth/refresh", Policy: auth.Public(), Handler: cfg.Auth.Refresh},

		{Method: fiber.MethodGet, Path: "/v1/users/me", Policy: auth.Authenticated(), Handler: cfg.Profile.Me},
		{Method: fiber.MethodPatch, Path: "/v1/users/me", Policy: auth.Authenticated(), Handler: cfg.Profile.UpdateMe},

		{Method: fiber.MethodPost, Path: "/v1/chat/sessions/:id/messages", Policy: auth.Roles(clinical...), Handler: cfg.Chat.PostMessage},
		{Method: fiber.MethodGet, Path: "/v1/chat/sessions/:id/messages", Policy: auth.Roles(append(clinical, domain.RoleAdmin)...), Handler: cfg.Chat.History},
		{Method: fiber.MethodGet, Path: "/v1/chat/sessions", Policy: auth.Roles(domain.RoleAdmin, domain.RoleDoctor), Handler: cfg.Chat.ListSessions},
		{Method: fiber.MethodDelete, Path: "/v1/chat/sessions", Policy: auth.Roles(domain.RoleAdmin), Handler: cfg.Chat.PurgeSessions},

		{Method: fiber.MethodDelete, Path: "/v1/admin/cache", Policy: auth.Roles(domain.RoleAdmin), Handler: cfg.Admin.InvalidateCache},
	}
}

// RegisterRoutes mounts the route table behind the gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) error {
	return Routes(cfg).Register(app, cfg.Gate)
}
