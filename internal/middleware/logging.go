package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// chatOf returns the chat and user an update belongs to.
func chatOf(update *models.Update) (chatID, userID int64, kind string) {
	switch {
	case update.Message != nil:
		chatID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		return chatID, userID, "message"
	case update.EditedMessage != nil:
		chatID = update.EditedMessage.Chat.ID
		if update.EditedMessage.From != nil {
			userID = update.EditedMessage.From.ID
		}
		return chatID, userID, "edited_message"
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message.Message != nil {
			chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		return chatID, update.CallbackQuery.From.ID, "callback_query"
	}
	return 0, 0, "unknown"
}

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			chatID, userID, updateType := chatOf(update)

			next(ctx, b, update)

			slog.Debug("update processed",
				"type", updateType,
				"chat_id", chatID,
				"user_id", userID,
				"duration", time.Since(start),
			)
		}
	}
}
