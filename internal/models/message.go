package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies which side of the conversation wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is a single immutable chat turn owned by a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	Sender         Sender    `json:"sender"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}
