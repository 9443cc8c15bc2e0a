package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/eldtechnologies/shopchat/internal/models"
)

// ErrDuplicateSession is returned by CreateConversation when another request
// created a conversation for the same session id first. Callers should
// re-read by session id instead of failing.
var ErrDuplicateSession = errors.New("store: conversation already exists for session")

// Store defines the interface for persistent conversation storage.
// Both PostgresStore and SQLiteStore implement this interface.
type Store interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Conversation operations
	GetConversationBySession(ctx context.Context, sessionID uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, id, sessionID uuid.UUID) (*models.Conversation, error)
	TouchConversation(ctx context.Context, id uuid.UUID) error

	// Message operations
	SaveMessage(ctx context.Context, conversationID uuid.UUID, sender models.Sender, text string) (*models.Message, error)
	GetConversationHistory(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
}
