package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestKey_ShortText(t *testing.T) {
	id := uuid.MustParse("0190a6e2-1111-7000-8000-000000000001")
	key := Key(id, "hello")
	require.Equal(t, "chat:0190a6e2-1111-7000-8000-000000000001:hello", key)
}

func TestKey_TruncatesLongText(t *testing.T) {
	id := uuid.New()
	long := strings.Repeat("x", 200)

	key := Key(id, long)
	require.Equal(t, "chat:"+id.String()+":"+strings.Repeat("x", 50), key)

	// Messages sharing a 50-byte prefix derive the same key
	require.Equal(t, key, Key(id, long+"suffix"))
}

func TestKey_DiffersPerConversation(t *testing.T) {
	require.NotEqual(t, Key(uuid.New(), "hello"), Key(uuid.New(), "hello"))
}

func TestDisabled_NoOps(t *testing.T) {
	c := Disabled()
	require.Equal(t, StateDisabled, c.State())
	require.Nil(t, c.Client())

	_, ok := c.Get(context.Background(), "chat:x:y")
	require.False(t, ok)

	// Set must be a silent no-op
	c.Set(context.Background(), "chat:x:y", "value")
	_, ok = c.Get(context.Background(), "chat:x:y")
	require.False(t, ok)

	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())
}

func TestNew_EmptyURLDisabled(t *testing.T) {
	c := New(context.Background(), "", time.Hour, zerolog.Nop())
	require.Equal(t, StateDisabled, c.State())
}

func TestNew_InvalidURLFails(t *testing.T) {
	c := New(context.Background(), "not-a-redis-url", time.Hour, zerolog.Nop())
	require.Equal(t, StateFailed, c.State())

	// A failed handle behaves exactly like a permanent miss
	_, ok := c.Get(context.Background(), "chat:x:y")
	require.False(t, ok)
	c.Set(context.Background(), "chat:x:y", "value")
}

func TestNew_UnreachableServerFails(t *testing.T) {
	// Port 1 is never listening; the single connection attempt must fail
	// and leave the handle in no-op mode rather than erroring.
	c := New(context.Background(), "redis://127.0.0.1:1", time.Hour, zerolog.Nop())
	require.Equal(t, StateFailed, c.State())
	require.Nil(t, c.Client())

	_, ok := c.Get(context.Background(), "chat:x:y")
	require.False(t, ok)
	c.Set(context.Background(), "chat:x:y", "value")
	require.NoError(t, c.Ping(context.Background()))
}
