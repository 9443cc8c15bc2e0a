package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/shopchat/internal/metrics"
)

// keyPrefixLen bounds how much of the user message feeds the cache key.
const keyPrefixLen = 50

// State reports how the cache handle resolved at startup. The state is
// decided exactly once; there is no reconnection.
type State int

const (
	// StateConnected means the startup ping succeeded and entries are served.
	StateConnected State = iota
	// StateDisabled means caching was turned off by configuration.
	StateDisabled
	// StateFailed means the single startup connection attempt failed and the
	// handle operates as a no-op for the process lifetime.
	StateFailed
)

// ReplyCache memoizes generated replies in Redis with a fixed TTL. It is
// strictly an optimization: every operation degrades to a miss or a no-op
// when the handle is not connected, and transport failures are logged and
// swallowed.
type ReplyCache struct {
	client *redis.Client
	state  State
	ttl    time.Duration
	logger zerolog.Logger
}

// New attempts the single startup connection. A failure is reported in the
// returned handle's state, never as an error.
func New(ctx context.Context, redisURL string, ttl time.Duration, logger zerolog.Logger) *ReplyCache {
	c := &ReplyCache{state: StateDisabled, ttl: ttl, logger: logger}
	if redisURL == "" {
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid redis URL, continuing without cache")
		c.state = StateFailed
		return c
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without cache")
		_ = client.Close()
		c.state = StateFailed
		return c
	}

	c.client = client
	c.state = StateConnected
	return c
}

// Disabled returns a handle that never caches. Used when caching is turned
// off by configuration and in tests.
func Disabled() *ReplyCache {
	return &ReplyCache{state: StateDisabled, logger: zerolog.Nop()}
}

// State returns how the handle resolved at startup.
func (c *ReplyCache) State() State {
	return c.state
}

// Client exposes the underlying connection for redis-backed middleware.
// Returns nil unless the handle is connected.
func (c *ReplyCache) Client() *redis.Client {
	return c.client
}

// Close releases the connection if one was established.
func (c *ReplyCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping checks the Redis connection.
func (c *ReplyCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Key derives the cache key for a reply from the conversation and a bounded
// prefix of the (already truncated) user message.
func Key(conversationID uuid.UUID, text string) string {
	if len(text) > keyPrefixLen {
		text = text[:keyPrefixLen]
	}
	return fmt.Sprintf("chat:%s:%s", conversationID, text)
}

// Get returns the cached reply for key, if any. Transport failures degrade
// to a miss.
func (c *ReplyCache) Get(ctx context.Context, key string) (string, bool) {
	if c.state != StateConnected {
		return "", false
	}

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		metrics.CacheMisses.Inc()
		return "", false
	}

	metrics.CacheHits.Inc()
	return val, true
}

// Set stores a reply under key with the configured TTL. Failures are logged
// and swallowed.
func (c *ReplyCache) Set(ctx context.Context, key, value string) {
	if c.state != StateConnected {
		return
	}

	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
