package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Storage
	DatabaseURL string // Postgres; empty falls back to SQLite
	SQLitePath  string

	// Cache
	RedisURL     string
	RedisEnabled bool
	CacheTTL     time.Duration

	// Reply generation
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	MaxHistory    int
	MaxRetries    int
	RetryDelay    time.Duration

	// Request handling
	MaxMessageLength int

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        getEnv("SQLITE_PATH", "shopchat.db"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RedisEnabled:      getEnv("REDIS_ENABLED", "true") == "true",
		CacheTTL:          time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-5-nano"),
		MaxHistory:        getEnvInt("MAX_CONVERSATION_HISTORY", 10),
		MaxRetries:        getEnvInt("LLM_MAX_RETRIES", 3),
		RetryDelay:        time.Duration(getEnvInt("LLM_RETRY_DELAY_MS", 2000)) * time.Millisecond,
		MaxMessageLength:  getEnvInt("MAX_MESSAGE_LENGTH", 2000),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}

	// In production, require the database and the generation credential
	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
		if cfg.OpenAIAPIKey == "" {
			panic("OPENAI_API_KEY is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
