package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/services/chat"
)

// MessageProcessor answers one conversational turn
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, sessionID, message string) (*chat.Reply, error)
}

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService MessageProcessor
	logger      arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService MessageProcessor, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type processMessageRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// ProcessMessageHandler handles POST /process_message
func (h *ChatHandler) ProcessMessageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req processMessageRequest
	if err := DecodeRequest(r, &req); err != nil {
		h.logger.Warn().Err(err).Msg("Rejected chat request")
		WriteServiceError(w, err)
		return
	}

	h.logger.Info().
		Int("message_length", len(req.Message)).
		Str("session_id", req.SessionID).
		Msg("Processing chat request")

	reply, err := h.chatService.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate chat response")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, reply)
}
