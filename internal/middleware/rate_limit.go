package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// chatLimiters hands out one token bucket per chat.
type chatLimiters struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	every    rate.Limit
	burst    int
}

func (c *chatLimiters) get(chatID int64) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[chatID]
	if !ok {
		lim = rate.NewLimiter(c.every, c.burst)
		c.limiters[chatID] = lim
	}
	return lim
}

// RateLimit returns middleware that allows perMinute messages per chat with
// the given burst. Callbacks are not limited.
func RateLimit(perMinute, burst int) bot.Middleware {
	limiters := &chatLimiters{
		limiters: make(map[int64]*rate.Limiter),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiters.get(chatID).Allow() {
				slog.Debug("rate limited", "chat_id", chatID, "per_minute", perMinute)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests. Please wait a moment.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
