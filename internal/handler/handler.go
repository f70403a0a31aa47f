package handler

import (
	"github.com/go-telegram/bot"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	sessions    *Sessions
	verticals   []string
	tgLogger    *telegram.TelegramLogger
	botUsername string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot         *bot.Bot
	Cfg         *config.Config
	Sessions    *Sessions
	Verticals   []string
	TgLogger    *telegram.TelegramLogger
	BotUsername string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		sessions:    deps.Sessions,
		verticals:   deps.Verticals,
		tgLogger:    deps.TgLogger,
		botUsername: deps.BotUsername,
	}
}
