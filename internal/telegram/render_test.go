package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/flow"
	"github.com/set-night/citycopilot/internal/gateway"
)

func TestRenderMessage_TypedArtifacts(t *testing.T) {
	msg := domain.Message{
		Role:    domain.RoleAssistant,
		Content: "Here are the ride options to the_airport.",
		Mode:    domain.ModePropose,
		Artifacts: []domain.Artifact{
			{Type: domain.ArtifactRideOptions, Data: flow.RideOptionsData{
				Destination: "the airport",
				Options: []flow.RideOption{
					{Tier: "Economy", ETA: "4 min", Price: "SAR 31.00"},
					{Tier: "Comfort", ETA: "6 min", Price: "SAR 44.00"},
				},
			}},
			domain.Chips("Book Now Economy to the airport SAR 31.00"),
		},
	}

	got := RenderMessage(msg)
	assert.True(t, strings.HasPrefix(got, "📝 Here are the ride options to the\\_airport."))
	assert.Contains(t, got, "🚕 *the airport*")
	assert.Contains(t, got, "• Economy (SAR 31.00, 4 min)")
	assert.NotContains(t, got, "Book Now")
}

func TestRenderMessage_MapArtifacts(t *testing.T) {
	msg := domain.Message{
		Role:    domain.RoleAssistant,
		Content: "Here are some popular coffee shops near you.",
		Mode:    domain.ModeSuggest,
		Pinned:  true,
		Edited:  true,
		Artifacts: []domain.Artifact{{Type: domain.ArtifactCarousel, Data: map[string]any{
			"title": "Top rated coffee nearby",
			"items": []any{
				map[string]any{"name": "Brew92", "rating": 4.8, "distance": "0.4km"},
				"Camel Step",
			},
		}}},
	}

	got := RenderMessage(msg)
	assert.True(t, strings.HasPrefix(got, "📌 Here are"))
	assert.Contains(t, got, "_(edited)_")
	assert.Contains(t, got, "🧭 *Top rated coffee nearby*")
	assert.Contains(t, got, "• Brew92 (4.8, 0.4km)")
	assert.Contains(t, got, "• Camel Step")
}

func TestRenderMessage_Facts(t *testing.T) {
	msg := domain.Message{
		Role: domain.RoleAssistant,
		Artifacts: []domain.Artifact{{Type: domain.ArtifactBooking, Data: flow.BookingData{
			Venue: "Lusin", Time: "20:00", Guests: 2, Status: "confirmed", Reference: "TBL-0042",
		}}},
	}
	got := RenderMessage(msg)
	assert.Contains(t, got, "*Lusin*")
	assert.Contains(t, got, "status: confirmed")
	assert.Contains(t, got, "reference: TBL-0042")
}

func TestRenderMessage_UserMessage(t *testing.T) {
	got := RenderMessage(domain.Message{Role: domain.RoleUser, Content: "*hi*", Mode: domain.ModeExecute})
	assert.Equal(t, "\\*hi\\*", got)
}

func TestMessageKeyboard(t *testing.T) {
	msg := domain.Message{
		ID:        "m1",
		Role:      domain.RoleAssistant,
		Reactions: map[string][]string{ReactionEmoji: {"a", "b"}},
		Artifacts: []domain.Artifact{
			domain.Chips("Find parking", "Bus schedule"),
			{Type: domain.ArtifactList, Data: gateway.ListData{Items: []gateway.ListItem{
				{Title: "Metro news", Link: "https://news.example/metro"},
				{Title: "No link"},
			}}},
		},
	}

	kb := MessageKeyboard(msg)
	require.NotNil(t, kb)
	rows := kb.InlineKeyboard
	require.Len(t, rows, 4)
	assert.Equal(t, "Find parking", rows[0][0].Text)
	assert.Equal(t, "chip:m1:0", rows[0][0].CallbackData)
	assert.Equal(t, "chip:m1:1", rows[1][0].CallbackData)
	assert.Equal(t, "https://news.example/metro", rows[2][0].URL)
	assert.Equal(t, "👍 2", rows[3][0].Text)
	assert.Equal(t, "pin:m1", rows[3][1].CallbackData)
	assert.Equal(t, "del:m1", rows[3][2].CallbackData)

	assert.Nil(t, MessageKeyboard(domain.Message{ID: "u1", Role: domain.RoleUser}))
}

func TestMessageKeyboard_SkipsOversizedCallbackData(t *testing.T) {
	msg := domain.Message{
		ID:        strings.Repeat("x", 70),
		Role:      domain.RoleAssistant,
		Artifacts: []domain.Artifact{domain.Chips("Find parking")},
	}
	assert.Nil(t, MessageKeyboard(msg))
}

func TestChipLabels_DecodedMap(t *testing.T) {
	msg := domain.Message{Artifacts: []domain.Artifact{
		{Type: domain.ArtifactChips, Data: map[string]any{"labels": []any{"a", "b"}}},
		domain.Chips("c"),
	}}
	assert.Equal(t, []string{"a", "b", "c"}, ChipLabels(msg))
}

func TestParseChip(t *testing.T) {
	tests := []struct {
		data  string
		id    string
		index int
		ok    bool
	}{
		{"chip:m1:0", "m1", 0, true},
		{"chip:abc:def:12", "abc:def", 12, true},
		{"chip::1", "", 0, false},
		{"chip:m1:x", "", 0, false},
		{"react:m1", "", 0, false},
	}
	for _, tt := range tests {
		id, index, ok := ParseChip(tt.data)
		assert.Equal(t, tt.ok, ok, tt.data)
		if tt.ok {
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.index, index)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
	parts := SplitMessage(text, 10)
	assert.Equal(t, []string{strings.Repeat("a", 8) + "\n", strings.Repeat("b", 8)}, parts)

	parts = SplitMessage(strings.Repeat("é", 25), 10)
	require.Len(t, parts, 3)
	assert.Equal(t, strings.Repeat("é", 5), parts[2])
}
