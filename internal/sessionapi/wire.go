// Package sessionapi implements both sides of the remote session API: the
// client the session store persists through, and the HTTP server backing it.
package sessionapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/jsonx"
)

// wireMessage mirrors domain.Message with the timestamp kept as a string so
// it can be parsed leniently on receipt.
type wireMessage struct {
	ID        string              `json:"id"`
	Role      domain.Role         `json:"role"`
	Sender    *domain.Sender      `json:"sender,omitempty"`
	Content   string              `json:"content"`
	Timestamp string              `json:"timestamp"`
	Artifacts []domain.Artifact   `json:"artifacts,omitempty"`
	Mode      domain.Mode         `json:"mode,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Pinned    bool                `json:"isPinned,omitempty"`
	Edited    bool                `json:"isEdited,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (w wireMessage) toDomain(now time.Time) domain.Message {
	ts, ok := parseTimestamp(w.Timestamp)
	if !ok {
		ts = now
	}
	id := w.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := w.Role
	if role == "" {
		role = domain.RoleAssistant
	}
	return domain.Message{
		ID:        id,
		Role:      role,
		Sender:    w.Sender,
		Content:   w.Content,
		Timestamp: ts,
		Artifacts: w.Artifacts,
		Mode:      w.Mode,
		Reactions: w.Reactions,
		Pinned:    w.Pinned,
		Edited:    w.Edited,
	}
}

// decodeMessages accepts a bare array or an object with a messages field.
func decodeMessages(raw json.RawMessage, now time.Time) []domain.Message {
	wire := jsonx.List[wireMessage](raw, "messages", "data")
	out := make([]domain.Message, len(wire))
	for i, w := range wire {
		out[i] = w.toDomain(now)
	}
	return out
}

// decodeMessage accepts a message object or an object with a message field.
func decodeMessage(raw json.RawMessage, now time.Time) (domain.Message, bool) {
	var wrapped struct {
		Message *wireMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Message != nil {
		return wrapped.Message.toDomain(now), true
	}
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil || (w.Content == "" && len(w.Artifacts) == 0) {
		return domain.Message{}, false
	}
	return w.toDomain(now), true
}

type saveRequest struct {
	Messages []domain.Message `json:"messages"`
	Title    string           `json:"title,omitempty"`
}

type simulateRequest struct {
	VerticalID string `json:"verticalId"`
}
