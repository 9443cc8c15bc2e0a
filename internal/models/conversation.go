package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the durable record tying a widget session to its history.
// Exactly one conversation exists per session id, created lazily on first
// contact.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewID generates a time-ordered UUID v7 for conversations and messages.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
