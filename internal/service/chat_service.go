package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/cache"
	"github.com/spec-kit/hms-service/internal/domain"
	"github.com/spec-kit/hms-service/internal/events"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

const (
	maxChatBodyLength = 4000
	previewLength     = 80
)

// PostResult reports the appended message and whether the transcript store accepted it.
type PostResult struct {
	Entry  cache.Entry[domain.ChatMessage]
	Stored bool
}

// ChatService keeps live consultation transcripts in the ephemeral list store.
type ChatService struct {
	transcripts *cache.SessionLog[domain.ChatMessage]
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// NewChatService builds the service. Transcripts expire window after their last message.
func NewChatService(store *cache.Store, prefix string, window time.Duration, dispatcher events.Dispatcher, logger *zap.Logger) *ChatService {
	return &ChatService{
		transcripts: cache.NewSessionLog[domain.ChatMessage](store, prefix, window),
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Post appends a message to the session transcript and announces it.
func (s *ChatService) Post(ctx context.Context, actor events.Actor, sessionID, body string) (PostResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	body = strings.TrimSpace(body)
	if sessionID == "" {
		return PostResult{}, apperrors.NewValidationError("session id required", nil)
	}
	if body == "" {
		return PostResult{}, apperrors.NewValidationError("body required", nil)
	}
	if len(body) > maxChatBodyLength {
		return PostResult{}, apperrors.NewValidationError("body too long", map[string]any{"max": maxChatBodyLength})
	}

	msg := domain.ChatMessage{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		SenderID:   actor.ID,
		SenderRole: actor.Role,
		Body:       body,
	}

	entry, err := s.transcripts.Append(ctx, sessionID, msg)
	if err != nil {
		s.logger.Warn("failed to store chat message", zap.String("session_id", sessionID), zap.Error(err))
		return PostResult{Entry: cache.Entry[domain.ChatMessage]{Message: msg, Timestamp: time.Now().UnixMilli()}}, nil
	}
	s.logger.Debug("chat message stored", zap.String("session_id", sessionID), zap.String("message_id", msg.ID))

	event, err := events.NewEvent(events.EventChatMessageAdded, sessionID, actor, events.ChatMessageAddedPayload{
		MessageID:   msg.ID,
		SessionID:   sessionID,
		SenderRole:  actor.Role,
		BodyPreview: preview(body),
	})
	if err == nil {
		err = s.dispatcher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Warn("publish chat message failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return PostResult{Entry: entry, Stored: true}, nil
}

// History returns the transcript in append order; an unavailable store yields an empty history.
func (s *ChatService) History(ctx context.Context, sessionID string) []cache.Entry[domain.ChatMessage] {
	entries, err := s.transcripts.ReadAll(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to fetch chat history", zap.String("session_id", sessionID), zap.Error(err))
		return []cache.Entry[domain.ChatMessage]{}
	}
	return entries
}

// ActiveSessions lists sessions with a live transcript.
func (s *ChatService) ActiveSessions(ctx context.Context) []string {
	sessions, err := s.transcripts.ActiveSessions(ctx)
	if err != nil {
		s.logger.Warn("failed to retrieve active sessions", zap.Error(err))
		return []string{}
	}
	return sessions
}

// Purge drops every live transcript.
func (s *ChatService) Purge(ctx context.Context) int64 {
	removed, err := s.transcripts.Purge(ctx)
	if err != nil {
		s.logger.Warn("failed to purge chat sessions", zap.Error(err))
		return 0
	}
	s.logger.Info("chat sessions purged", zap.Int64("removed", removed))
	return removed
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "..."
}
