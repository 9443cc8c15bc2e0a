package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// schemaMaxMessageLength is the hard request-shape limit in characters;
// messages beyond it are rejected outright. The configured maximum only
// truncates.
const schemaMaxMessageLength = 2000

// sessionIDRegex validates the canonical UUID textual format, either case.
var sessionIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// SendMessageRequest represents the chat message request.
type SendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// SendMessageResponse represents the chat message response.
type SendMessageResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// FieldError describes one validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse represents a 400 with field-level detail.
type ValidationErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details"`
}

// HistoryMessage represents a message in the history response.
type HistoryMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse represents the conversation history response.
type HistoryResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []HistoryMessage `json:"messages"`
}

// SendMessage handles one chat exchange.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var details []FieldError
	if req.Message == "" {
		details = append(details, FieldError{Field: "message", Message: "Message cannot be empty"})
	}
	if utf8.RuneCountInString(req.Message) > schemaMaxMessageLength {
		details = append(details, FieldError{Field: "message", Message: "Message too long"})
	}

	sessionID := uuid.Nil
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			details = append(details, FieldError{Field: "sessionId", Message: "Invalid session ID"})
		} else {
			sessionID = parsed
		}
	}

	if len(details) > 0 {
		h.JSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation error",
			Details: details,
		})
		return
	}

	// Generate a session id when the client did not supply one
	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}

	// Silent truncation: stored message and prompt both use the bounded form
	text := truncateRunes(req.Message, h.maxMessageLength)

	reply, err := h.chat.SendMessage(r.Context(), sessionID, text)
	if err != nil {
		h.Failure(w, http.StatusInternalServerError, "Failed to process message", err.Error())
		return
	}

	h.JSON(w, http.StatusOK, SendMessageResponse{
		Reply:     reply,
		SessionID: sessionID.String(),
	})
}

// truncateRunes bounds s to max characters without splitting a rune.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// GetHistory returns the full ordered history for a session. The session id
// shape is validated before any store access.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionIDStr := chi.URLParam(r, "sessionId")

	if !sessionIDRegex.MatchString(sessionIDStr) {
		h.Error(w, http.StatusBadRequest, "Invalid session ID")
		return
	}
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	messages, err := h.chat.History(r.Context(), sessionID)
	if err != nil {
		h.Failure(w, http.StatusInternalServerError, "Failed to fetch history", err.Error())
		return
	}

	// The canonical lowercase form goes back regardless of request casing
	resp := HistoryResponse{
		SessionID: sessionID.String(),
		Messages:  make([]HistoryMessage, len(messages)),
	}
	for i, msg := range messages {
		resp.Messages[i] = HistoryMessage{
			ID:        msg.ID.String(),
			Sender:    string(msg.Sender),
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		}
	}

	h.JSON(w, http.StatusOK, resp)
}
