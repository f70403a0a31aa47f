package handler

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/middleware"
	"github.com/set-night/citycopilot/internal/session"
	tg "github.com/set-night/citycopilot/internal/telegram"
)

// HandleText runs a free-text message through the chat's session.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || strings.HasPrefix(msg.Text, "/") {
		return
	}
	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}

	reply, ok := h.send(ctx, b, msg.Chat.ID, store, msg.Text, "")
	if !ok {
		return
	}
	if userMsg, found := userMessageBefore(store.Snapshot().Messages, reply.ID, strings.TrimSpace(msg.Text)); found {
		if cs := h.sessions.chat(msg.Chat.ID); cs != nil {
			cs.link(msg.ID, userMsg.ID)
		}
	}
}

// send runs one turn and posts the rendered reply. prefix is prepended to
// the reply text.
func (h *Handler) send(ctx context.Context, b *bot.Bot, chatID int64, store *session.Store, text, prefix string) (domain.Message, bool) {
	stopTyping := tg.StartTyping(ctx, b, chatID)
	reply, ok := store.Send(ctx, text, nil)
	stopTyping()
	if !ok {
		return domain.Message{}, false
	}

	if _, err := tg.SendLongMessage(ctx, b, chatID, prefix+tg.RenderMessage(reply), tg.MessageKeyboard(reply)); err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID)
		h.tgLogger.LogError(err, "send reply")
	}
	return reply, true
}

// userMessageBefore finds the user message with the given text that
// precedes the reply.
func userMessageBefore(msgs []domain.Message, replyID, text string) (domain.Message, bool) {
	i := slices.IndexFunc(msgs, func(m domain.Message) bool { return m.ID == replyID })
	for j := i - 1; j >= 0; j-- {
		if msgs[j].Role == domain.RoleUser && msgs[j].Content == text {
			return msgs[j], true
		}
	}
	return domain.Message{}, false
}

// HandleEditedMessage applies a Telegram edit to the matching user message.
func (h *Handler) HandleEditedMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.EditedMessage
	if msg == nil || strings.HasPrefix(msg.Text, "/") {
		return
	}
	store := middleware.GetStore(ctx)
	cs := h.sessions.chat(msg.Chat.ID)
	if store == nil || cs == nil {
		return
	}
	id, ok := cs.linked(msg.ID)
	if !ok {
		return
	}

	err := store.HandleMessageAction(ctx, session.ActionEdit, session.ActionPayload{MessageID: id, Content: msg.Text})
	if err != nil && !errors.Is(err, domain.ErrMessageNotFound) {
		slog.Error("apply edit", "error", err, "chat_id", msg.Chat.ID)
	}
}

func (h *Handler) handleChip(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	store := middleware.GetStore(ctx)
	messageID, index, ok := tg.ParseChip(update.CallbackQuery.Data)
	if store == nil || !ok {
		answer(ctx, b, update, "")
		return
	}

	msgs := store.Snapshot().Messages
	i := slices.IndexFunc(msgs, func(m domain.Message) bool { return m.ID == messageID })
	var labels []string
	if i >= 0 {
		labels = tg.ChipLabels(msgs[i])
	}
	if index >= len(labels) {
		answer(ctx, b, update, "This option is no longer available.")
		return
	}
	answer(ctx, b, update, "")

	label := labels[index]
	chatID, _ := callbackTarget(update)
	h.send(ctx, b, chatID, store, label, "› *"+tg.EscapeMarkdown(label)+"*\n\n")
}
