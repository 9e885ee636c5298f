package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hms-service/internal/domain"
)

// Policy is the static authorization metadata of one route.
type Policy struct {
	Public        bool
	RequiredRoles []domain.Role
}

// Public marks a route that needs no token.
func Public() Policy {
	return Policy{Public: true}
}

// Authenticated admits any caller holding a valid access token.
func Authenticated() Policy {
	return Policy{}
}

// Roles admits callers holding at least one of roles.
func Roles(roles ...domain.Role) Policy {
	return Policy{RequiredRoles: roles}
}

// Route binds a method and path to its policy and handler.
type Route struct {
	Method  string
	Path    string
	Policy  Policy
	Handler fiber.Handler
}

// RouteTable is the full set of routes served by the API.
type RouteTable []Route

// Lookup returns the policy declared for method and path.
func (t RouteTable) Lookup(method, path string) (Policy, bool) {
	for _, route := range t {
		if route.Method == method && route.Path == path {
			return route.Policy, true
		}
	}
	return Policy{}, false
}

// Register mounts every route behind the gate. Duplicate routes are rejected.
func (t RouteTable) Register(router fiber.Router, gate *Gate) error {
	seen := make(map[string]struct{}, len(t))
	for _, route := range t {
		key := route.Method + " " + route.Path
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate route %s", key)
		}
		seen[key] = struct{}{}
		if route.Handler == nil {
			return fmt.Errorf("route %s has no handler", key)
		}
		router.Add(route.Method, route.Path, gate.Guard(route.Policy), route.Handler)
	}
	return nil
}
