package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover returns middleware that recovers from panics. onPanic, when set,
// receives the recovered value as an error.
func Recover(onPanic func(error)) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					chatID, _, updateType := chatOf(update)
					slog.Error("panic recovered in handler",
						"panic", r,
						"type", updateType,
						"chat_id", chatID,
						"stack", string(debug.Stack()),
					)
					if onPanic != nil {
						onPanic(fmt.Errorf("panic in %s handler for chat %d: %v", updateType, chatID, r))
					}
				}
			}()
			next(ctx, b, update)
		}
	}
}
