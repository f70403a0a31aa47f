package telegram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/domain"
)

// Callback data prefixes.
const (
	CallbackChip        = "chip:"
	CallbackReact       = "react:"
	CallbackPin         = "pin:"
	CallbackDelete      = "del:"
	CallbackThread      = "thread:"
	CallbackThreadsPage = "threads_page"
	CallbackNewThread   = "new_thread"
	CallbackVertical    = "vertical:"
	CallbackNoop        = "cur"
)

const ReactionEmoji = "👍"

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// URLButton creates a URL inline keyboard button.
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text: text,
		URL:  url,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// PaginationRow creates a pagination row with prev/next buttons.
func PaginationRow(currentPage, totalPages int, callbackPrefix string) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton

	if currentPage > 0 {
		row = append(row, InlineButton("⬅️", fmt.Sprintf("%s_%d", callbackPrefix, currentPage-1)))
	}

	row = append(row, InlineButton(
		fmt.Sprintf("%d/%d", currentPage+1, totalPages),
		CallbackNoop,
	))

	if currentPage < totalPages-1 {
		row = append(row, InlineButton("➡️", fmt.Sprintf("%s_%d", callbackPrefix, currentPage+1)))
	}

	return row
}

// ChipLabels flattens every chips artifact of the message, in order.
func ChipLabels(msg domain.Message) []string {
	var labels []string
	for _, a := range msg.Artifacts {
		if a.Type != domain.ArtifactChips {
			continue
		}
		raw, err := json.Marshal(a.Data)
		if err != nil {
			continue
		}
		var data domain.ChipsData
		if err := json.Unmarshal(raw, &data); err != nil {
			continue
		}
		labels = append(labels, data.Labels...)
	}
	return labels
}

// ParseChip splits chip callback data into message id and chip index.
func ParseChip(data string) (messageID string, index int, ok bool) {
	rest, found := strings.CutPrefix(data, CallbackChip)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 {
		return "", 0, false
	}
	index, err := strconv.Atoi(rest[i+1:])
	if err != nil || index < 0 {
		return "", 0, false
	}
	return rest[:i], index, true
}

func fits(data string) bool {
	return len(data) <= config.MaxCallbackDataLen
}

// MessageKeyboard builds the inline keyboard for one assistant message:
// one row per chip, link buttons for list items, and the reaction row.
// It returns nil when there is nothing to show.
func MessageKeyboard(msg domain.Message) *models.InlineKeyboardMarkup {
	if msg.Role != domain.RoleAssistant {
		return nil
	}

	var rows [][]models.InlineKeyboardButton
	for i, label := range ChipLabels(msg) {
		data := fmt.Sprintf("%s%s:%d", CallbackChip, msg.ID, i)
		if !fits(data) {
			continue
		}
		rows = append(rows, ButtonRow(InlineButton(label, data)))
	}
	for _, link := range artifactLinks(msg) {
		rows = append(rows, ButtonRow(URLButton(link.title, link.url)))
	}

	if fits(CallbackReact + msg.ID) {
		like := ReactionEmoji
		if n := len(msg.Reactions[ReactionEmoji]); n > 0 {
			like = fmt.Sprintf("%s %d", ReactionEmoji, n)
		}
		pin := "📌"
		if msg.Pinned {
			pin = "📍 Unpin"
		}
		rows = append(rows, ButtonRow(
			InlineButton(like, CallbackReact+msg.ID),
			InlineButton(pin, CallbackPin+msg.ID),
			InlineButton("🗑", CallbackDelete+msg.ID),
		))
	}

	if len(rows) == 0 {
		return nil
	}
	return InlineKeyboard(rows...)
}
