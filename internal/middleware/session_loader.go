package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/session"
)

type ctxKey string

const StoreKey ctxKey = "store"

// GetStore extracts the chat's session store from context.
func GetStore(ctx context.Context) *session.Store {
	s, ok := ctx.Value(StoreKey).(*session.Store)
	if !ok {
		return nil
	}
	return s
}

// StoreProvider returns the session store for a chat, creating it on first use.
type StoreProvider interface {
	Store(ctx context.Context, b *bot.Bot, chatID int64, from *models.User) *session.Store
}

// SessionLoader returns middleware that puts the chat's session store into context.
func SessionLoader(provider StoreProvider) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			switch {
			case update.Message != nil:
				from = update.Message.From
			case update.EditedMessage != nil:
				from = update.EditedMessage.From
			case update.CallbackQuery != nil:
				from = &update.CallbackQuery.From
			}

			chatID, _, _ := chatOf(update)
			if chatID == 0 {
				next(ctx, b, update)
				return
			}

			if store := provider.Store(ctx, b, chatID, from); store != nil {
				ctx = context.WithValue(ctx, StoreKey, store)
			}
			next(ctx, b, update)
		}
	}
}
