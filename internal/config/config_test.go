package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "SQLITE_PATH",
		"REDIS_URL", "REDIS_ENABLED", "CACHE_TTL_SECONDS",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"MAX_CONVERSATION_HISTORY", "LLM_MAX_RETRIES", "LLM_RETRY_DELAY_MS",
		"MAX_MESSAGE_LENGTH", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.True(t, cfg.IsDevelopment())
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, "shopchat.db", cfg.SQLitePath)
	require.True(t, cfg.RedisEnabled)
	require.Equal(t, time.Hour, cfg.CacheTTL)
	require.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	require.Equal(t, "gpt-5-nano", cfg.OpenAIModel)
	require.Equal(t, 10, cfg.MaxHistory)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.RetryDelay)
	require.Equal(t, 2000, cfg.MaxMessageLength)
	require.Equal(t, 30, cfg.RateLimitRequests)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "staging")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/shopchat")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("CACHE_TTL_SECONDS", "600")
	t.Setenv("LLM_MAX_RETRIES", "5")
	t.Setenv("LLM_RETRY_DELAY_MS", "500")
	t.Setenv("MAX_MESSAGE_LENGTH", "100")

	cfg := Load()

	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "staging", cfg.Env)
	require.False(t, cfg.IsDevelopment())
	require.Equal(t, "postgres://localhost:5432/shopchat", cfg.DatabaseURL)
	require.False(t, cfg.RedisEnabled)
	require.Equal(t, 10*time.Minute, cfg.CacheTTL)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	require.Equal(t, 100, cfg.MaxMessageLength)
}

func TestLoadIgnoresMalformedInts(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL_SECONDS", "not-a-number")
	t.Setenv("LLM_MAX_RETRIES", "3.5")

	cfg := Load()

	require.Equal(t, time.Hour, cfg.CacheTTL)
	require.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadPanicsInProductionWithoutDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	require.PanicsWithValue(t, "DATABASE_URL is required in production", func() { Load() })
}

func TestLoadPanicsInProductionWithoutAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/shopchat")

	require.PanicsWithValue(t, "OPENAI_API_KEY is required in production", func() { Load() })
}
