package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const titleMaxRunes = 40

type Thread struct {
	ID       string
	Title    string
	Messages []Message
}

type ThreadSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

// NewThreadID returns the client-side thread id for a conversation started at t.
func NewThreadID(t time.Time) string {
	return fmt.Sprintf("thread_%d", t.UnixMilli())
}

// TitleFrom derives a thread title from the first user message.
func TitleFrom(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= titleMaxRunes {
		return text
	}
	return string([]rune(text)[:titleMaxRunes]) + "..."
}
