package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/auth"
	"github.com/spec-kit/hms-service/internal/domain"
	"github.com/spec-kit/hms-service/internal/repository"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// TokenPair is returned on login.
type TokenPair struct {
	Access  domain.IssuedToken
	Refresh domain.IssuedToken
}

// AuthService exchanges credentials for tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Login verifies email and password and issues an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, TokenPair{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, TokenPair{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, TokenPair{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active() {
		return nil, TokenPair{}, apperrors.NewUnauthorized("account suspended")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.IssuedToken, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.IssuedToken{}, apperrors.NewInvalidOrExpiredToken(err)
		}
		return domain.IssuedToken{}, err
	}
	if !user.Active() {
		return domain.IssuedToken{}, apperrors.NewUnauthorized("account suspended")
	}
	return s.tokens.IssueAccess(user)
}

func (s *AuthService) issuePair(user *domain.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
