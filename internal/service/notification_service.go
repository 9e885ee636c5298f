package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/config"
	"github.com/spec-kit/hms-service/internal/events"
)

// NotificationService fans domain events out to email and webhook stubs.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

type eventHandler func(ctx context.Context, event events.Event)

func (n *NotificationService) handlers() map[events.EventType]eventHandler {
	return map[events.EventType]eventHandler{
		events.EventChatMessageAdded: n.handleChatMessageAdded,
		events.EventUserUpdated:      n.handleUserUpdated,
		events.EventCacheInvalidated: n.handleCacheInvalidated,
	}
}

// Run subscribes to every handled event type and consumes the streams until ctx ends.
func (n *NotificationService) Run(ctx context.Context) error {
	if n.dispatcher == nil {
		return nil
	}

	var (
		wg      sync.WaitGroup
		streams []*events.Stream
	)
	for eventType, handle := range n.handlers() {
		stream, err := n.dispatcher.Subscribe(ctx, eventType)
		if err != nil {
			for _, s := range streams {
				s.Close()
			}
			wg.Wait()
			return err
		}
		streams = append(streams, stream)

		wg.Add(1)
		go func(stream *events.Stream, handle eventHandler) {
			defer wg.Done()
			defer stream.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-stream.Events():
					if !ok {
						return
					}
					handle(ctx, event)
				}
			}
		}(stream, handle)
	}

	wg.Wait()
	return nil
}

func (n *NotificationService) handleChatMessageAdded(ctx context.Context, event events.Event) {
	var payload events.ChatMessageAddedPayload
	if err := event.Decode(&payload); err != nil {
		n.logger.Warn("malformed chat event", zap.String("event_id", event.ID), zap.Error(err))
		return
	}
	n.logger.Info("ChatMessageAdded",
		zap.String("session_id", payload.SessionID),
		zap.String("message_id", payload.MessageID),
		zap.String("sender_role", string(payload.SenderRole)))
	n.sendEmailNotificationStub(ctx, event)
}

func (n *NotificationService) handleUserUpdated(ctx context.Context, event events.Event) {
	var payload events.UserUpdatedPayload
	if err := event.Decode(&payload); err != nil {
		n.logger.Warn("malformed user event", zap.String("event_id", event.ID), zap.Error(err))
		return
	}
	n.logger.Info("UserUpdated", zap.String("user_id", payload.UserID), zap.Strings("fields", payload.Fields))
	n.sendWebhookNotificationStub(ctx, event)
}

func (n *NotificationService) handleCacheInvalidated(ctx context.Context, event events.Event) {
	var payload events.CacheInvalidatedPayload
	if err := event.Decode(&payload); err != nil {
		n.logger.Warn("malformed cache event", zap.String("event_id", event.ID), zap.Error(err))
		return
	}
	n.logger.Info("CacheInvalidated",
		zap.String("pattern", payload.Pattern),
		zap.Int64("removed", payload.Removed),
		zap.String("actor_id", event.Actor.ID))
	n.sendWebhookNotificationStub(ctx, event)
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject", event.Subject),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject", event.Subject),
		zap.String("event_type", string(event.Type)))
}
