package repository

import (
	"fmt"
	"time"

	"github.com/set-night/citycopilot/internal/domain"
)

type seedTurn struct {
	user      string
	assistant string
	mode      domain.Mode
}

var seedConversations = [][]seedTurn{
	{
		{"Find coffee shops nearby", "Here are some popular coffee shops near you.", domain.ModeSuggest},
		{"Book table at Najd Village", "Your table at Najd Village is confirmed.", domain.ModeExecute},
	},
	{
		{"Report a pothole", "I can file a pothole report with the municipality. Share the location to continue.", domain.ModePropose},
	},
	{
		{"Book a ride to the airport", "Here are the ride options to the airport.", domain.ModePropose},
		{"Book Now Comfort to the airport SAR 45.00", "Your Comfort ride to the airport is booked.", domain.ModeExecute},
	},
}

var seedSender = domain.Sender{ID: "seed-user", Name: "Sara", IsMe: true}

// SeedThreads builds the mock history written by POST /debug/seed. Thread
// ids and timestamps are derived from now so repeated seeds do not collide.
func SeedThreads(now time.Time) []domain.Thread {
	threads := make([]domain.Thread, 0, len(seedConversations))
	for i, turns := range seedConversations {
		start := now.Add(-time.Duration(len(seedConversations)-i) * time.Hour)
		t := domain.Thread{
			ID:    domain.NewThreadID(start),
			Title: domain.TitleFrom(turns[0].user),
		}
		at := start
		for j, turn := range turns {
			sender := seedSender
			t.Messages = append(t.Messages,
				domain.Message{
					ID:        fmt.Sprintf("seed-%d-%d-u", i, j),
					Role:      domain.RoleUser,
					Sender:    &sender,
					Content:   turn.user,
					Timestamp: at,
				},
				domain.Message{
					ID:        fmt.Sprintf("seed-%d-%d-a", i, j),
					Role:      domain.RoleAssistant,
					Content:   turn.assistant,
					Timestamp: at.Add(2 * time.Second),
					Mode:      turn.mode,
				},
			)
			at = at.Add(time.Minute)
		}
		threads = append(threads, t)
	}
	return threads
}
