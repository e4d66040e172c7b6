package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidylist/tidylist/internal/middleware"
	"github.com/tidylist/tidylist/internal/models"
)

// AgentService defines the AI operations required by the HTTP handlers.
type AgentService interface {
	// ProcessMessage interprets one user message, performs any matching
	// task actions, and returns the reply with its tool calls.
	ProcessMessage(ctx context.Context, userID, message, conversationID string) (models.ChatReply, error)
	// InitConversation returns a fresh conversation id for the user.
	InitConversation(ctx context.Context, userID string) (string, error)
}

// AIHandler handles the AI agent endpoints. They use the
// {success, data, message} envelope rather than the plain {data, message}
// one.
type AIHandler struct {
	Agent AgentService
}

// writeAI writes the AI envelope.
func writeAI(w http.ResponseWriter, status int, success bool, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"data":    data,
		"message": message,
	})
}

// processMessageRequest is the chat payload. conversation_id may be null
// for the first exchange.
type processMessageRequest struct {
	Message        string  `json:"message"`
	UserID         string  `json:"user_id"`
	ConversationID *string `json:"conversation_id"`
}

// ProcessMessage handles POST /api/ai/process_message. The authenticated
// user id takes precedence over the one in the body, so users can only
// reach their own conversations and tasks.
func (h *AIHandler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req processMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeAI(w, http.StatusBadRequest, false, nil, "message is required")
		return
	}

	conversationID := ""
	if req.ConversationID != nil {
		conversationID = *req.ConversationID
	}

	reply, err := h.Agent.ProcessMessage(r.Context(), userID, req.Message, conversationID)
	if err != nil {
		writeAI(w, http.StatusInternalServerError, false, nil, "failed to process message")
		return
	}
	writeAI(w, http.StatusOK, true, reply, "Message processed successfully")
}

// initConversationRequest is the conversation-initialization payload.
type initConversationRequest struct {
	UserID string `json:"user_id"`
}

// InitConversation handles POST /api/ai/init_conversation.
func (h *AIHandler) InitConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req initConversationRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // body is accepted but the authenticated user wins

	id, err := h.Agent.InitConversation(r.Context(), userID)
	if err != nil {
		writeAI(w, http.StatusInternalServerError, false, nil, "failed to initialize conversation")
		return
	}
	writeAI(w, http.StatusOK, true, map[string]any{"conversation_id": id}, "Conversation initialized successfully")
}
