package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/hms-service/internal/domain"
)

// EventType enumerates supported event identifiers. Each type travels on its own channel.
type EventType string

const (
	EventChatMessageAdded EventType = "chat.message_added"
	EventUserUpdated      EventType = "user.updated"
	EventCacheInvalidated EventType = "cache.invalidated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role,omitempty"`
}

// Event is the envelope published on a channel.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Subject   string          `json:"subject"`
	Actor     Actor           `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an envelope around payload.
func NewEvent(eventType EventType, subject string, actor Actor, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// Decode unmarshals the payload into dst.
func (e Event) Decode(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s event has no payload", e.Type)
	}
	return json.Unmarshal(e.Payload, dst)
}

// ChatMessageAddedPayload payload.
type ChatMessageAddedPayload struct {
	MessageID   string      `json:"message_id"`
	SessionID   string      `json:"session_id"`
	SenderRole  domain.Role `json:"sender_role"`
	BodyPreview string      `json:"body_preview"`
}

// UserUpdatedPayload payload.
type UserUpdatedPayload struct {
	UserID string   `json:"user_id"`
	Fields []string `json:"fields"`
}

// CacheInvalidatedPayload payload.
type CacheInvalidatedPayload struct {
	Pattern string `json:"pattern"`
	Removed int64  `json:"removed"`
}
