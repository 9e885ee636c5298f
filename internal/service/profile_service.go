package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/cache"
	"github.com/spec-kit/hms-service/internal/domain"
	"github.com/spec-kit/hms-service/internal/events"
	"github.com/spec-kit/hms-service/internal/repository"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

const profileKeyPrefix = "user:"

// ProfileService serves account profiles from the cache, falling back to Postgres.
type ProfileService struct {
	users      repository.UserRepository
	profiles   *cache.Bucket[domain.User]
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProfileService builds the service. Cached profiles live for ttl.
func NewProfileService(users repository.UserRepository, store *cache.Store, ttl time.Duration, dispatcher events.Dispatcher, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		users:      users,
		profiles:   cache.NewBucket[domain.User](store, profileKeyPrefix, ttl),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Get returns the profile of userID. Cached profiles carry no password hash.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	cached, found, err := s.profiles.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
	} else if found {
		return &cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}

	if err := s.profiles.Set(ctx, userID, *user); err != nil {
		s.logger.Warn("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return user, nil
}

// Rename updates the display name, drops the cached profile and announces the change.
func (s *ProfileService) Rename(ctx context.Context, actor events.Actor, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": actor.ID})
		}
		return nil, err
	}

	user.Name = name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.profiles.Delete(ctx, user.ID); err != nil {
		s.logger.Warn("profile cache invalidation failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	event, err := events.NewEvent(events.EventUserUpdated, user.ID, actor, events.UserUpdatedPayload{
		UserID: user.ID,
		Fields: []string{"name"},
	})
	if err == nil {
		err = s.dispatcher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Warn("publish user update failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}
