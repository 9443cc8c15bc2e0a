package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldtechnologies/shopchat/internal/models"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetConversationBySession retrieves a conversation by session id.
// Returns (nil, nil) when no conversation exists for the session.
func (s *PostgresStore) GetConversationBySession(ctx context.Context, sessionID uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, session_id, created_at, updated_at
		FROM conversations WHERE session_id = $1
	`, sessionID).Scan(
		&conv.ID,
		&conv.SessionID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return conv, nil
}

// CreateConversation inserts a new conversation and returns the stored row.
// Returns ErrDuplicateSession when the session id is already taken.
func (s *PostgresStore) CreateConversation(ctx context.Context, id, sessionID uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, session_id)
		VALUES ($1, $2)
		RETURNING id, session_id, created_at, updated_at
	`, id, sessionID).Scan(
		&conv.ID,
		&conv.SessionID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateSession
		}
		return nil, err
	}
	return conv, nil
}

// TouchConversation updates the updated_at timestamp.
func (s *PostgresStore) TouchConversation(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE conversations SET updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

// SaveMessage appends an immutable message to a conversation.
func (s *PostgresStore) SaveMessage(ctx context.Context, conversationID uuid.UUID, sender models.Sender, text string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conversation_id, sender, text, timestamp
	`, models.NewID(), conversationID, string(sender), text).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Sender,
		&msg.Text,
		&msg.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetConversationHistory retrieves all messages of a conversation in
// ascending timestamp order.
func (s *PostgresStore) GetConversationHistory(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, sender, text, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Sender,
			&msg.Text,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
