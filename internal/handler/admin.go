package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/middleware"
)

// handleSeed writes mock history through the session API. Admins only.
func (h *Handler) handleSeed(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if !h.cfg.IsAdmin(update.Message.From.ID) {
		return
	}
	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := store.Seed(ctx); err != nil {
		slog.Error("seed threads", "error", err)
		h.tgLogger.LogError(err, "seed threads")
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Seeding failed. Is DEBUG_SEED enabled on the session API?",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("🌱 Seeded. %d threads available, see /threads.", len(store.Snapshot().Threads)),
	})
}
