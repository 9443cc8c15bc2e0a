package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesExchanged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopchat_messages_exchanged_total",
			Help: "Total user/ai message exchanges completed",
		},
	)

	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopchat_conversations_created_total",
			Help: "Total conversations created",
		},
	)

	// Generation metrics
	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopchat_generation_requests_total",
			Help: "Total reply generation calls by outcome",
		},
		[]string{"outcome"}, // "success" or "failure"
	)

	GenerationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopchat_generation_retries_total",
			Help: "Total reply generation retry attempts",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopchat_cache_hits_total",
			Help: "Total reply cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopchat_cache_misses_total",
			Help: "Total reply cache misses",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopchat_rate_limit_hits_total",
			Help: "Total requests rejected by rate limiting",
		},
	)
)
