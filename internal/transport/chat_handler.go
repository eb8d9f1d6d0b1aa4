package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/realtime"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SendMessageRequest represents the chat message payload
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// ChatHandler handles the customer side of the support chat
type ChatHandler struct {
	chat   service.ChatService
	ws     *realtime.WebSocketHandler
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chat service.ChatService, ws *realtime.WebSocketHandler, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, ws: ws, logger: logger}
}

// RegisterRoutes registers all chat routes
func (h *ChatHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Thread)
		r.Post("/", h.Send)
		r.Get("/ws", h.Watch)
	})
}

// Thread returns the customer's conversation
func (h *ChatHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	messages, err := h.chat.Thread(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load chat thread", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, messages)
}

// Send appends a customer message to the thread
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.chat.Send(r.Context(), userID, service.ChatSenderCustomer, req.Content)
	if err != nil {
		if err == service.ErrEmptyMessage {
			middleware.RespondWithError(w, http.StatusBadRequest, "message is empty")
			return
		}
		h.logger.Error("Failed to send chat message", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, message)
}

// Watch streams the customer's chat changes over a websocket. The
// stream is pinned to the authenticated user's rows.
func (h *ChatHandler) Watch(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.ws.Serve(w, r, "chat_messages", &userID)
}
