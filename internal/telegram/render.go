package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/jsonx"
)

var (
	headerKeys = []string{"title", "question", "goal", "venue", "restaurant", "event", "destination", "name"}
	listKeys   = []string{"items", "options", "agents", "invitees", "steps", "memberIds"}
	nameKeys   = []string{"name", "title", "label", "tier", "agent", "venue"}
	detailKeys = []string{"subtitle", "cuisine", "price", "amount", "eta", "status", "rating", "distance", "time"}
)

var modeBadges = map[domain.Mode]string{
	domain.ModePropose: "📝 ",
	domain.ModeExecute: "✅ ",
}

var artifactIcons = map[domain.ArtifactType]string{
	domain.ArtifactCarousel:     "🧭",
	domain.ArtifactList:         "📋",
	domain.ArtifactMap:          "🗺",
	domain.ArtifactTracker:      "🚗",
	domain.ArtifactMenu:         "🍽",
	domain.ArtifactRideOptions:  "🚕",
	domain.ArtifactBooking:      "🎫",
	domain.ArtifactInvite:       "✉️",
	domain.ArtifactPoll:         "🗳",
	domain.ArtifactAgentSync:    "🤝",
	domain.ArtifactMemberUpdate: "👥",
	domain.ArtifactProfile:      "👤",
	domain.ArtifactSummary:      "🧾",
}

// dataObject normalizes typed payloads and decoded maps alike.
func dataObject(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	return jsonx.Object(raw)
}

// RenderMessage renders one message as legacy Markdown. Chips are not part of
// the text; they become buttons.
func RenderMessage(msg domain.Message) string {
	var sb strings.Builder
	if msg.Pinned {
		sb.WriteString("📌 ")
	}
	if msg.Role == domain.RoleAssistant {
		sb.WriteString(modeBadges[msg.Mode])
	}
	sb.WriteString(EscapeMarkdown(msg.Content))
	if msg.Edited {
		sb.WriteString(" _(edited)_")
	}

	for _, a := range msg.Artifacts {
		if a.Type == domain.ArtifactChips {
			continue
		}
		if block := renderArtifact(a); block != "" {
			sb.WriteString("\n\n")
			sb.WriteString(block)
		}
	}
	return sb.String()
}

func renderArtifact(a domain.Artifact) string {
	obj := dataObject(a.Data)

	var lines []string
	header := jsonx.String(obj, headerKeys...)
	if header != "" {
		lines = append(lines, fmt.Sprintf("%s *%s*", artifactIcons[a.Type], EscapeMarkdown(header)))
	}

	for _, key := range listKeys {
		items, ok := obj[key].([]any)
		if !ok || len(items) == 0 {
			continue
		}
		for _, item := range items {
			if line := itemLine(item); line != "" {
				lines = append(lines, "• "+EscapeMarkdown(line))
			}
		}
		break
	}

	var facts []string
	for _, k := range []string{"status", "reference", "price", "eta", "total"} {
		if v := jsonx.String(obj, k); v != "" && v != header {
			facts = append(facts, fmt.Sprintf("%s: %s", k, v))
		}
	}
	if len(facts) > 0 {
		lines = append(lines, "_"+EscapeMarkdown(strings.Join(facts, " · "))+"_")
	}

	if len(lines) == 0 {
		return ""
	}
	if header == "" {
		lines[0] = artifactIcons[a.Type] + " " + lines[0]
	}
	return strings.Join(lines, "\n")
}

func itemLine(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case float64:
		return jsonx.String(map[string]any{"v": v}, "v")
	case map[string]any:
		name := jsonx.String(v, nameKeys...)
		var details []string
		for _, k := range detailKeys {
			if d := jsonx.String(v, k); d != "" && d != name {
				details = append(details, d)
			}
		}
		if votes, ok := v["votes"].(float64); ok {
			details = append(details, fmt.Sprintf("%d votes", int(votes)))
		}
		if slots, ok := v["slots"].([]any); ok {
			for _, s := range slots {
				if str, ok := s.(string); ok {
					details = append(details, str)
				}
			}
		}
		switch {
		case name == "":
			return strings.Join(details, ", ")
		case len(details) == 0:
			return name
		default:
			return name + " (" + strings.Join(details, ", ") + ")"
		}
	}
	return ""
}

type link struct {
	title string
	url   string
}

// artifactLinks collects list items carrying an http(s) link.
func artifactLinks(msg domain.Message) []link {
	var links []link
	for _, a := range msg.Artifacts {
		if a.Type != domain.ArtifactList {
			continue
		}
		items, _ := dataObject(a.Data)["items"].([]any)
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			url := jsonx.String(obj, "link")
			if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
				continue
			}
			title := jsonx.String(obj, "title")
			if title == "" {
				title = url
			}
			links = append(links, link{title: "🔗 " + title, url: url})
		}
	}
	return links
}
