package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/middleware"
	"github.com/set-night/citycopilot/internal/session"
	tg "github.com/set-night/citycopilot/internal/telegram"
)

const helpText = "\n\n📋 *Commands:*\n" +
	"/new - Start a fresh conversation\n" +
	"/threads - Browse and switch conversations\n" +
	"/vertical - Open a city vertical (dining, mobility, civic, social)\n\n" +
	"Or just tell me what you need."

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}
	h.startFresh(ctx, b, update.Message.Chat.ID, store, helpText)
}

func (h *Handler) handleNew(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}
	h.startFresh(ctx, b, update.Message.Chat.ID, store, "")
}

// startFresh switches the chat to a new conversation and shows the welcome
// message.
func (h *Handler) startFresh(ctx context.Context, b *bot.Bot, chatID int64, store *session.Store, suffix string) {
	if err := store.LoadThread(ctx, ""); err != nil {
		slog.Error("start fresh thread", "error", err, "chat_id", chatID)
		return
	}

	msgs := store.Snapshot().Messages
	if len(msgs) == 0 {
		return
	}
	welcome := msgs[len(msgs)-1]
	if _, err := tg.SendLongMessage(ctx, b, chatID, tg.RenderMessage(welcome)+suffix, tg.MessageKeyboard(welcome)); err != nil {
		slog.Error("send welcome", "error", err, "chat_id", chatID)
	}
}
