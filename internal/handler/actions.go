package handler

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/middleware"
	"github.com/set-night/citycopilot/internal/session"
	tg "github.com/set-night/citycopilot/internal/telegram"
)

// messageAction handles the reaction, pin and delete buttons under a reply.
func (h *Handler) messageAction(kind session.ActionKind, prefix string) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		cq := update.CallbackQuery
		if cq == nil {
			return
		}
		store := middleware.GetStore(ctx)
		if store == nil {
			answer(ctx, b, update, "")
			return
		}

		messageID := strings.TrimPrefix(cq.Data, prefix)
		err := store.HandleMessageAction(ctx, kind, session.ActionPayload{
			MessageID: messageID,
			Emoji:     tg.ReactionEmoji,
			UserID:    strconv.FormatInt(cq.From.ID, 10),
		})
		if errors.Is(err, domain.ErrMessageNotFound) {
			answer(ctx, b, update, "This message is not in the current thread.")
			return
		}
		if err != nil {
			slog.Error("message action", "error", err, "kind", kind)
			answer(ctx, b, update, "❌ Something went wrong.")
			return
		}
		answer(ctx, b, update, "")

		chatID, tgMessageID := callbackTarget(update)
		if tgMessageID == 0 {
			return
		}
		if kind == session.ActionDelete {
			b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: tgMessageID})
			return
		}

		msgs := store.Snapshot().Messages
		i := slices.IndexFunc(msgs, func(m domain.Message) bool { return m.ID == messageID })
		if i < 0 {
			return
		}
		if err := tg.EditMessage(ctx, b, chatID, tgMessageID, tg.RenderMessage(msgs[i]), tg.MessageKeyboard(msgs[i])); err != nil {
			slog.Warn("refresh message", "error", err, "chat_id", chatID)
		}
	}
}
