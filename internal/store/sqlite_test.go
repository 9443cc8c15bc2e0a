package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/shopchat/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSQLite_GetConversationBySession_Missing(t *testing.T) {
	s := newTestStore(t)

	conv, err := s.GetConversationBySession(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, conv)
}

func TestSQLite_CreateAndGetConversation(t *testing.T) {
	s := newTestStore(t)
	id, sessionID := models.NewID(), uuid.New()

	created, err := s.CreateConversation(context.Background(), id, sessionID)
	require.NoError(t, err)
	require.Equal(t, id, created.ID)
	require.Equal(t, sessionID, created.SessionID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := s.GetConversationBySession(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, id, got.ID)
}

func TestSQLite_DuplicateSessionRejected(t *testing.T) {
	s := newTestStore(t)
	sessionID := uuid.New()

	_, err := s.CreateConversation(context.Background(), models.NewID(), sessionID)
	require.NoError(t, err)

	_, err = s.CreateConversation(context.Background(), models.NewID(), sessionID)
	require.ErrorIs(t, err, ErrDuplicateSession)
}

func TestSQLite_SaveMessageAndHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	conv, err := s.CreateConversation(context.Background(), models.NewID(), uuid.New())
	require.NoError(t, err)

	user, err := s.SaveMessage(context.Background(), conv.ID, models.SenderUser, "do you ship to Canada?")
	require.NoError(t, err)
	ai, err := s.SaveMessage(context.Background(), conv.ID, models.SenderAI, "Yes, we do.")
	require.NoError(t, err)

	history, err := s.GetConversationHistory(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.Equal(t, user.ID, history[0].ID)
	require.Equal(t, models.SenderUser, history[0].Sender)
	require.Equal(t, "do you ship to Canada?", history[0].Text)
	require.Equal(t, ai.ID, history[1].ID)
	require.Equal(t, models.SenderAI, history[1].Sender)
	require.False(t, history[1].Timestamp.Before(history[0].Timestamp))
}

func TestSQLite_HistoryEmptyForNewConversation(t *testing.T) {
	s := newTestStore(t)
	conv, err := s.CreateConversation(context.Background(), models.NewID(), uuid.New())
	require.NoError(t, err)

	history, err := s.GetConversationHistory(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestSQLite_SaveMessageUnknownConversation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveMessage(context.Background(), uuid.New(), models.SenderUser, "orphan")
	require.Error(t, err, "foreign key constraint must reject unknown conversations")
}

func TestSQLite_TouchConversation(t *testing.T) {
	s := newTestStore(t)
	conv, err := s.CreateConversation(context.Background(), models.NewID(), uuid.New())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.TouchConversation(context.Background(), conv.ID))

	got, err := s.GetConversationBySession(context.Background(), conv.SessionID)
	require.NoError(t, err)
	require.True(t, got.UpdatedAt.After(conv.UpdatedAt))
}

func TestSQLite_CascadeDeleteMessages(t *testing.T) {
	s := newTestStore(t)
	conv, err := s.CreateConversation(context.Background(), models.NewID(), uuid.New())
	require.NoError(t, err)

	_, err = s.SaveMessage(context.Background(), conv.ID, models.SenderUser, "hello")
	require.NoError(t, err)

	// Administrative deletion path: messages cannot outlive their conversation
	_, err = s.db.ExecContext(context.Background(), `DELETE FROM conversations WHERE id = ?`, conv.ID.String())
	require.NoError(t, err)

	history, err := s.GetConversationHistory(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Empty(t, history)
}
