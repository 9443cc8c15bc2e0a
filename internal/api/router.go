package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/shopchat/internal/api/middleware"
	"github.com/eldtechnologies/shopchat/internal/handlers"
)

// RouterConfig holds the knobs the router needs beyond its handler.
type RouterConfig struct {
	RedisClient       *redis.Client // nil disables rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(1 << 20)) // 1MB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (no-op when the cache connection is absent)
	limiter := middleware.NewRateLimiter(cfg.RedisClient, logger, cfg.RateLimitRequests, cfg.RateLimitWindow)
	r.Use(limiter.Middleware)

	// CORS - the widget is embedded on arbitrary storefront pages
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)

	r.Route("/chat", func(r chi.Router) {
		r.Post("/message", h.SendMessage)
		r.Get("/history/{sessionId}", h.GetHistory)
	})

	return r
}
