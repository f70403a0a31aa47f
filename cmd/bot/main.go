package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/flow"
	"github.com/set-night/citycopilot/internal/gateway"
	"github.com/set-night/citycopilot/internal/handler"
	"github.com/set-night/citycopilot/internal/middleware"
	"github.com/set-night/citycopilot/internal/scenario"
	"github.com/set-night/citycopilot/internal/sessionapi"
	"github.com/set-night/citycopilot/internal/synth"
	"github.com/set-night/citycopilot/internal/telegram"
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
	if err := cfg.ValidateBot(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load catalogs
	registry, err := scenario.Default()
	if err != nil {
		slog.Error("failed to load scenario catalog", "error", err)
		os.Exit(1)
	}
	verticals, err := vertical.Load()
	if err != nil {
		slog.Error("failed to load verticals", "error", err)
		os.Exit(1)
	}
	slog.Info("catalogs loaded", "scenarios", registry.Len(), "verticals", len(verticals.IDs()))

	// Gateway enrichment is optional
	var adapter *gateway.Adapter
	if cfg.GatewayEnabled() {
		client := gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayToken, cfg.GatewayTimeout)
		adapter = gateway.NewAdapter(client)
		hctx, cancel := context.WithTimeout(ctx, cfg.GatewayTimeout)
		slog.Info("gateway configured", "url", cfg.GatewayURL, "healthy", client.Health(hctx))
		cancel()
	} else {
		slog.Info("gateway not configured, enrichment disabled")
	}

	// Initialize services
	responder := synth.New(flow.New(), registry, adapter, cfg.GatewayTimeout)
	remote := sessionapi.NewClient(cfg.SessionAPIURL, cfg.AnonKey, config.SessionRequestTimeout)
	if cfg.SessionToken != "" {
		remote.SetToken(cfg.SessionToken)
	}
	sessions := handler.NewSessions(responder, remote, cfg.SimulationMinDelay, cfg.SimulationMaxDelay)
	defer sessions.Close()
	go sessions.RunEviction(ctx, config.SessionEvictInterval, cfg.SessionIdleTimeout)

	// Handler pointer for use in default handler closure
	var (
		h        *handler.Handler
		tgLogger *telegram.TelegramLogger
	)

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(func(err error) { tgLogger.LogError(err, "update handler") }),
			middleware.Logging(),
			middleware.RateLimit(config.RateLimitPerMinute, config.RateLimitBurst),
			middleware.SessionLoader(sessions),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			if update.EditedMessage != nil {
				h.HandleEditedMessage(ctx, b, update)
			}
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Initialize telegram logger
	tgLogger = telegram.NewTelegramLogger(b, cfg)
	if adapter != nil {
		adapter.OnFailure(func(r gateway.Result) {
			go tgLogger.LogGatewayFailure(string(r.Domain), r.Endpoint, r.Failure().Code, r.Failure().Message)
		})
	}

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:         b,
		Cfg:         cfg,
		Sessions:    sessions,
		Verticals:   verticals.IDs(),
		TgLogger:    tgLogger,
		BotUsername: me.Username,
	})

	// Register all handlers
	h.Register()

	// Register default text handler for free text
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		// Skip commands
		if len(update.Message.Text) > 0 && update.Message.Text[0] == '/' {
			return
		}
		h.HandleText(ctx, b, update)
	})

	// Metrics server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID, "admins", cfg.AdminIDsString())
	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}
	b.Start(ctx)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown", "error", err)
	}
	slog.Info("bot stopped gracefully")
}
