package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/session"
	tg "github.com/set-night/citycopilot/internal/telegram"
)

// Register registers all command and callback handlers on the bot.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypePrefix, h.handleNew)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/threads", bot.MatchTypePrefix, h.handleThreads)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/vertical", bot.MatchTypePrefix, h.handleVertical)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/seed", bot.MatchTypePrefix, h.handleSeed)

	// Thread callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackThreadsPage, bot.MatchTypePrefix, h.handleThreadsPage)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackThread, bot.MatchTypePrefix, h.handleSwitchThread)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackNewThread, bot.MatchTypeExact, h.handleNewThread)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackVertical, bot.MatchTypePrefix, h.handleVerticalSelect)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackNoop, bot.MatchTypeExact, h.handleNoop)

	// Message callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackChip, bot.MatchTypePrefix, h.handleChip)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackReact, bot.MatchTypePrefix, h.messageAction(session.ActionReact, tg.CallbackReact))
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackPin, bot.MatchTypePrefix, h.messageAction(session.ActionPin, tg.CallbackPin))
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackDelete, bot.MatchTypePrefix, h.messageAction(session.ActionDelete, tg.CallbackDelete))

	// Note: free text and edited messages are routed from main.go
}

// handleNoop is a no-op callback handler used for pagination indicators and other
// non-interactive inline buttons. It simply acknowledges the callback query.
func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}

// callbackTarget returns the chat and message a callback button belongs to.
func callbackTarget(update *models.Update) (chatID int64, messageID int) {
	if msg := update.CallbackQuery.Message.Message; msg != nil {
		return msg.Chat.ID, msg.ID
	}
	return 0, 0
}

func answer(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
		Text:            text,
	})
}
