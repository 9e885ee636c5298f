package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/hms-service/internal/config"
	"github.com/spec-kit/hms-service/internal/domain"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

const bearerPrefix = "Bearer "

var (
	errRefreshPurpose = errors.New("refresh token used for resource access")
	errAccessPurpose  = errors.New("access token used for refresh")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a manager for the configured HMAC algorithm.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	method, ok := jwt.GetSigningMethod(cfg.JWTAlgorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.JWTAlgorithm)
	}
	accessTTL := cfg.AccessTokenTTL()
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	refreshTTL := cfg.RefreshTokenTTL()
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(cfg.JWTSecret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// IssueAccess signs an access token for the user.
func (tm *TokenManager) IssueAccess(user *domain.User) (domain.IssuedToken, error) {
	return tm.issue(user, domain.PurposeAccess, tm.accessTTL)
}

// IssueRefresh signs a refresh token for the user.
func (tm *TokenManager) IssueRefresh(user *domain.User) (domain.IssuedToken, error) {
	return tm.issue(user, domain.PurposeRefresh, tm.refreshTTL)
}

func (tm *TokenManager) issue(user *domain.User, purpose domain.TokenPurpose, ttl time.Duration) (domain.IssuedToken, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Role:    RoleSet{user.Role},
		Email:   user.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(tm.method, claims).SignedString(tm.secret)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{Value: signed, Purpose: purpose, ExpiresAt: expiresAt}, nil
}

// Validate checks an Authorization header value and returns the access claims.
func (tm *TokenManager) Validate(header string) (*Claims, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, apperrors.NewMissingOrInvalidToken()
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return nil, apperrors.NewMissingOrInvalidToken()
	}

	claims, err := tm.parse(raw)
	if err != nil {
		return nil, apperrors.NewInvalidOrExpiredToken(err)
	}
	if claims.Purpose == domain.PurposeRefresh {
		return nil, apperrors.NewInvalidOrExpiredToken(errRefreshPurpose)
	}
	return claims, nil
}

// ParseRefresh verifies a raw refresh token. Access tokens are rejected.
func (tm *TokenManager) ParseRefresh(raw string) (*Claims, error) {
	claims, err := tm.parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperrors.NewInvalidOrExpiredToken(err)
	}
	if claims.Purpose != domain.PurposeRefresh {
		return nil, apperrors.NewInvalidOrExpiredToken(errAccessPurpose)
	}
	return claims, nil
}

func (tm *TokenManager) parse(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
