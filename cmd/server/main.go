package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/shopchat/internal/api"
	"github.com/eldtechnologies/shopchat/internal/cache"
	"github.com/eldtechnologies/shopchat/internal/chat"
	"github.com/eldtechnologies/shopchat/internal/config"
	"github.com/eldtechnologies/shopchat/internal/handlers"
	"github.com/eldtechnologies/shopchat/internal/llm"
	"github.com/eldtechnologies/shopchat/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the conversation store
	var st store.Store
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		st = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		st = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	}
	defer st.Close()

	// Initialize the reply cache. One attempt at startup; the server runs
	// without caching when it fails.
	var replyCache *cache.ReplyCache
	if cfg.RedisEnabled && cfg.RedisURL != "" {
		replyCache = cache.New(ctx, cfg.RedisURL, cfg.CacheTTL, logger)
		if replyCache.State() == cache.StateConnected {
			logger.Info().Msg("connected to Redis")
		}
	} else {
		replyCache = cache.Disabled()
		logger.Info().Msg("reply cache disabled")
	}
	defer replyCache.Close()

	// Wire the service graph
	generator := llm.New(cfg, logger)
	service := chat.NewService(st, replyCache, generator, logger)
	handler := handlers.NewHandler(service, st, replyCache, cfg.MaxMessageLength)

	// Create router
	router := api.NewRouter(logger, handler, api.RouterConfig{
		RedisClient:       replyCache.Client(),
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// Generation with retries can take well over a minute
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting shopchat server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
