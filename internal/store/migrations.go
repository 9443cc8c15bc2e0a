package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// postgresSchema is applied on startup. Statements are idempotent so the
// server can run migrations on every boot.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id UUID PRIMARY KEY,
	session_id UUID UNIQUE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

DO $$ BEGIN
	CREATE TYPE message_sender AS ENUM ('user', 'ai');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;

CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY,
	conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	sender message_sender NOT NULL,
	text TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
CREATE INDEX IF NOT EXISTS idx_conversations_session_id ON conversations(session_id);
`

// RunMigrations applies the schema using a single short-lived connection.
func RunMigrations(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, postgresSchema)
	return err
}
