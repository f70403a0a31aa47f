package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/middleware"
	"github.com/set-night/citycopilot/internal/session"
	tg "github.com/set-night/citycopilot/internal/telegram"
)

func (h *Handler) handleVertical(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) > 1 {
		h.activateVertical(ctx, b, chatID, store, strings.ToLower(parts[1]))
		return
	}

	var rows [][]models.InlineKeyboardButton
	for _, id := range h.verticals {
		rows = append(rows, tg.ButtonRow(tg.InlineButton(strings.ToUpper(id[:1])+id[1:], tg.CallbackVertical+id)))
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "Which vertical would you like to open?",
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

func (h *Handler) handleVerticalSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}
	chatID, _ := callbackTarget(update)
	h.activateVertical(ctx, b, chatID, store, strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackVertical))
}

func (h *Handler) activateVertical(ctx context.Context, b *bot.Bot, chatID int64, store *session.Store, id string) {
	msg, err := store.ActivateVertical(ctx, id)
	if errors.Is(err, domain.ErrVerticalNotFound) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Unknown vertical. Available: " + strings.Join(h.verticals, ", "),
		})
		return
	}
	if err != nil {
		slog.Error("activate vertical", "error", err, "vertical", id)
		h.tgLogger.LogError(err, "activate vertical "+id)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ This vertical is unavailable right now. Try again later.",
		})
		return
	}

	if _, err := tg.SendLongMessage(ctx, b, chatID, tg.RenderMessage(msg), tg.MessageKeyboard(msg)); err != nil {
		slog.Error("send vertical", "error", err, "chat_id", chatID)
	}
}
