package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hms-service/internal/api/dto"
	"github.com/spec-kit/hms-service/internal/service"
	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// ChatHandler manages live consultation transcripts.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// PostMessage POST /v1/chat/sessions/:id/messages.
// Responds 201 when stored and 202 when the transcript store was unavailable.
func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.chat.Post(c.UserContext(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if !result.Stored {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(fiber.Map{
		"data":   dto.NewChatMessageResponse(result.Entry),
		"stored": result.Stored,
	})
}

// History GET /v1/chat/sessions/:id/messages.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	entries := h.chat.History(c.UserContext(), sessionID)
	return c.JSON(fiber.Map{
		"data": dto.NewChatHistoryResponse(entries),
		"meta": fiber.Map{"session_id": sessionID, "count": len(entries)},
	})
}

// ListSessions GET /v1/chat/sessions.
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	sessions := h.chat.ActiveSessions(c.UserContext())
	return c.JSON(fiber.Map{"data": sessions})
}

// PurgeSessions DELETE /v1/chat/sessions.
func (h *ChatHandler) PurgeSessions(c *fiber.Ctx) error {
	removed := h.chat.Purge(c.UserContext())
	return c.JSON(fiber.Map{"data": fiber.Map{"removed": removed}})
}
