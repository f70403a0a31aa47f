package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Mode tells the UI how binding an assistant reply is.
type Mode string

const (
	ModeSuggest Mode = "suggest"
	ModePropose Mode = "propose"
	ModeExecute Mode = "execute"
)

type Sender struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	IsMe   bool   `json:"isMe,omitempty"`
}

type Message struct {
	ID        string              `json:"id"`
	Role      Role                `json:"role"`
	Sender    *Sender             `json:"sender,omitempty"`
	Content   string              `json:"content"`
	Timestamp time.Time           `json:"timestamp"`
	Artifacts []Artifact          `json:"artifacts,omitempty"`
	Mode      Mode                `json:"mode,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Pinned    bool                `json:"isPinned,omitempty"`
	Edited    bool                `json:"isEdited,omitempty"`
}

// ToggleReaction adds userID to the emoji's reactor set, or removes it when
// already present. Empty sets are dropped so a double toggle restores the
// original state.
func (m *Message) ToggleReaction(emoji, userID string) {
	reactors := m.Reactions[emoji]
	if i := slices.Index(reactors, userID); i >= 0 {
		reactors = slices.Delete(slices.Clone(reactors), i, i+1)
	} else {
		reactors = append(slices.Clone(reactors), userID)
	}

	if len(reactors) == 0 {
		delete(m.Reactions, emoji)
		if len(m.Reactions) == 0 {
			m.Reactions = nil
		}
		return
	}
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	m.Reactions[emoji] = reactors
}

// Clone returns a deep copy safe to hand to observers.
func (m Message) Clone() Message {
	out := m
	if m.Sender != nil {
		s := *m.Sender
		out.Sender = &s
	}
	out.Artifacts = slices.Clone(m.Artifacts)
	if m.Reactions != nil {
		out.Reactions = make(map[string][]string, len(m.Reactions))
		for k, v := range m.Reactions {
			out.Reactions[k] = slices.Clone(v)
		}
	}
	return out
}

func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
