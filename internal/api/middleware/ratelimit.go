package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/shopchat/internal/metrics"
)

// RateLimiter implements fixed-window rate limiting on message posts,
// keyed by client IP and counted in Redis. It fails open: a nil client
// (cache disabled or unreachable) or a Redis error lets the request pass.
type RateLimiter struct {
	client   *redis.Client
	logger   zerolog.Logger
	requests int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:   client,
		logger:   logger,
		requests: requests,
		window:   window,
	}
}

// Middleware limits POST /chat/message per client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.client == nil || r.Method != http.MethodPost || r.URL.Path != "/chat/message" {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		key := fmt.Sprintf("ratelimit:chat:%s", ip)

		pipe := rl.client.Pipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.Expire(r.Context(), key, rl.window)
		if _, err := pipe.Exec(r.Context()); err != nil {
			rl.logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		if count := incr.Val(); count > int64(rl.requests) {
			metrics.RateLimitHits.Inc()
			rl.logger.Warn().Str("ip", ip).Int64("count", count).Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, trusting RealIP middleware to have
// already rewritten RemoteAddr from forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
