package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/observability"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

const claimsKey = "auth_claims"

// Outcome names the state in which the gate finished for a call.
type Outcome string

const (
	OutcomePublic          Outcome = "public"
	OutcomeMetricsBypass   Outcome = "metrics_bypass"
	OutcomeAllowed         Outcome = "allowed"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeForbidden       Outcome = "forbidden"
)

// TokenValidator verifies an Authorization header value.
type TokenValidator interface {
	Validate(header string) (*Claims, error)
}

// Gate runs the public check, token check and role check in front of every route.
type Gate struct {
	validator   TokenValidator
	metricsPath string
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewGate constructs the gate. Requests to metricsPath skip authentication.
func NewGate(validator TokenValidator, metricsPath string, logger *zap.Logger, metrics *observability.Metrics) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{validator: validator, metricsPath: metricsPath, logger: logger, metrics: metrics}
}

// Decide evaluates a call against its route policy. Claims are nil unless a token was verified.
func (g *Gate) Decide(policy Policy, path, header string) (Outcome, *Claims, error) {
	if policy.Public {
		return OutcomePublic, nil, nil
	}
	if g.metricsPath != "" && path == g.metricsPath {
		return OutcomeMetricsBypass, nil, nil
	}

	claims, err := g.validator.Validate(header)
	if err != nil {
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) {
			err = apperrors.NewInvalidOrExpiredToken(err)
		}
		return OutcomeUnauthenticated, nil, err
	}
	if claims == nil {
		return OutcomeUnauthenticated, nil, apperrors.NewInvalidOrExpiredToken(nil)
	}

	if err := Authorize(claims, policy.RequiredRoles); err != nil {
		return OutcomeForbidden, claims, err
	}
	return OutcomeAllowed, claims, nil
}

// Guard adapts Decide to a fiber handler bound to one route's policy.
func (g *Gate) Guard(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome, claims, err := g.Decide(policy, c.Path(), c.Get(fiber.HeaderAuthorization))
		g.metrics.RecordDecision(string(outcome))
		if err != nil {
			fields := []zap.Field{zap.String("path", c.Path()), zap.String("outcome", string(outcome)), zap.Error(err)}
			if claims != nil {
				fields = append(fields, zap.String("subject", claims.Subject))
			}
			g.logger.Debug("request denied", fields...)
			return err
		}
		if claims != nil {
			c.Locals(claimsKey, claims)
		}
		return c.Next()
	}
}

// ClaimsFromContext retrieves the verified claims attached by the gate.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
