package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/repository"
	"github.com/set-night/citycopilot/internal/sessionapi"
	"github.com/set-night/citycopilot/internal/vertical"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns:         cfg.DBMaxConns,
		MinConns:         cfg.DBMinConns,
		StatementTimeout: cfg.DBStatementTimeout,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	if err := repository.MigrateThreads(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	verticals, err := vertical.Load()
	if err != nil {
		slog.Error("failed to load verticals", "error", err)
		os.Exit(1)
	}

	server := sessionapi.NewServer(repository.NewThreadRepository(pool), verticals, sessionapi.ServerConfig{
		AnonKey:   cfg.AnonKey,
		Tokens:    cfg.SessionTokens,
		DebugSeed: cfg.DebugSeed,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("session api shutdown", "error", err)
		}
	}()

	slog.Info("session api listening", "addr", cfg.ListenAddr, "debug_seed", cfg.DebugSeed, "tokens", len(cfg.SessionTokens))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("session api failed", "error", err)
		os.Exit(1)
	}
	slog.Info("session api stopped gracefully")
}
