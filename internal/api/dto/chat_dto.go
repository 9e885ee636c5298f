package dto

import (
	"time"

	"github.com/spec-kit/hms-service/internal/cache"
	"github.com/spec-kit/hms-service/internal/domain"
)

// PostMessageRequest payload for POST /v1/chat/sessions/:id/messages.
type PostMessageRequest struct {
	Body string `json:"body"`
}

// ChatMessageResponse is one transcript line with its server timestamp.
type ChatMessageResponse struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"session_id"`
	SenderID   string      `json:"sender_id"`
	SenderRole domain.Role `json:"sender_role"`
	Body       string      `json:"body"`
	SentAt     time.Time   `json:"sent_at"`
}

// NewChatMessageResponse flattens a stored entry.
func NewChatMessageResponse(entry cache.Entry[domain.ChatMessage]) ChatMessageResponse {
	return ChatMessageResponse{
		ID:         entry.Message.ID,
		SessionID:  entry.Message.SessionID,
		SenderID:   entry.Message.SenderID,
		SenderRole: entry.Message.SenderRole,
		Body:       entry.Message.Body,
		SentAt:     entry.Time(),
	}
}

// NewChatHistoryResponse flattens a transcript, preserving append order.
func NewChatHistoryResponse(entries []cache.Entry[domain.ChatMessage]) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NewChatMessageResponse(entry))
	}
	return out
}
