package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/eldtechnologies/shopchat/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// fallback when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/shopchat.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/shopchat.db"
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		session_id TEXT UNIQUE NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender TEXT NOT NULL CHECK (sender IN ('user', 'ai')),
		text TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
	CREATE INDEX IF NOT EXISTS idx_conversations_session_id ON conversations(session_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetConversationBySession retrieves a conversation by session id.
// Returns (nil, nil) when no conversation exists for the session.
func (s *SQLiteStore) GetConversationBySession(ctx context.Context, sessionID uuid.UUID) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, created_at, updated_at
		FROM conversations WHERE session_id = ?
	`, sessionID.String())
	return scanConversation(row)
}

// CreateConversation inserts a new conversation and returns the stored row.
// Returns ErrDuplicateSession when the session id is already taken.
func (s *SQLiteStore) CreateConversation(ctx context.Context, id, sessionID uuid.UUID) (*models.Conversation, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, id.String(), sessionID.String(), now, now)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateSession
		}
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, created_at, updated_at
		FROM conversations WHERE id = ?
	`, id.String())
	return scanConversation(row)
}

// TouchConversation updates the updated_at timestamp.
func (s *SQLiteStore) TouchConversation(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET updated_at = ? WHERE id = ?
	`, time.Now().UTC(), id.String())
	return err
}

// SaveMessage appends an immutable message to a conversation.
func (s *SQLiteStore) SaveMessage(ctx context.Context, conversationID uuid.UUID, sender models.Sender, text string) (*models.Message, error) {
	id := models.NewID()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender, text, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id.String(), conversationID.String(), string(sender), text, now, now)
	if err != nil {
		return nil, err
	}

	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		Timestamp:      now,
	}, nil
}

// GetConversationHistory retrieves all messages of a conversation in
// ascending timestamp order.
func (s *SQLiteStore) GetConversationHistory(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender, text, timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC
	`, conversationID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			msg            models.Message
			idStr, convStr string
			sender         string
		)
		err := rows.Scan(&idStr, &convStr, &sender, &msg.Text, &msg.Timestamp)
		if err != nil {
			return nil, err
		}
		msg.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		msg.ConversationID, err = uuid.Parse(convStr)
		if err != nil {
			return nil, err
		}
		msg.Sender = models.Sender(sender)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func scanConversation(row *sql.Row) (*models.Conversation, error) {
	var (
		conv              models.Conversation
		idStr, sessionStr string
	)
	err := row.Scan(&idStr, &sessionStr, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	conv.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	conv.SessionID, err = uuid.Parse(sessionStr)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
