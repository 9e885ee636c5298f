package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/cache"
	"github.com/spec-kit/hms-service/internal/events"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// CacheAdminService exposes operator maintenance of the shared cache.
type CacheAdminService struct {
	store      *cache.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func NewCacheAdminService(store *cache.Store, dispatcher events.Dispatcher, logger *zap.Logger) *CacheAdminService {
	return &CacheAdminService{store: store, dispatcher: dispatcher, logger: logger}
}

// Invalidate deletes every key matching pattern and reports how many were removed.
func (s *CacheAdminService) Invalidate(ctx context.Context, actor events.Actor, pattern string) int64 {
	removed, err := s.store.DelPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		return 0
	}
	s.logger.Info("cache invalidated",
		zap.String("pattern", pattern),
		zap.Int64("removed", removed),
		zap.String("actor_id", actor.ID))

	event, err := events.NewEvent(events.EventCacheInvalidated, pattern, actor, events.CacheInvalidatedPayload{
		Pattern: pattern,
		Removed: removed,
	})
	if err == nil {
		err = s.dispatcher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Warn("publish cache invalidation failed", zap.Error(err))
	}
	return removed
}

// ValidatePattern rejects blank patterns before they reach the store.
func ValidatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return apperrors.NewValidationError("pattern required", nil)
	}
	return nil
}
