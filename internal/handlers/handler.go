package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/eldtechnologies/shopchat/internal/cache"
	"github.com/eldtechnologies/shopchat/internal/models"
)

// ChatService is the orchestration surface the HTTP layer depends on.
type ChatService interface {
	SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (string, error)
	History(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error)
}

// Pinger checks a storage dependency's connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	chat  ChatService
	db    Pinger
	cache *cache.ReplyCache

	maxMessageLength int
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(chat ChatService, db Pinger, rc *cache.ReplyCache, maxMessageLength int) *Handler {
	return &Handler{chat: chat, db: db, cache: rc, maxMessageLength: maxMessageLength}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Failure sends the uniform {error, message} envelope for internal errors.
func (h *Handler) Failure(w http.ResponseWriter, status int, errLabel, message string) {
	h.JSON(w, status, map[string]string{"error": errLabel, "message": message})
}
