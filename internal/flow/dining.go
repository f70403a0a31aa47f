package flow

import (
	"fmt"
	"regexp"

	"github.com/set-night/citycopilot/internal/domain"
)

const (
	bookingTime   = "20:00"
	bookingGuests = 2
)

type BookingData struct {
	Venue     string `json:"venue"`
	Time      string `json:"time"`
	Guests    int    `json:"guests"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

var tableBooking = Handler{
	Name:    "table_booking",
	Pattern: regexp.MustCompile(`(?i)^book (?:a )?table at (.+)$`),
	Respond: func(m []string) domain.Response {
		venue := titleCase(clean(m[1]))
		ref := fmt.Sprintf("TBL-%04d", stable(venue, 10000))
		return domain.Response{
			Content: fmt.Sprintf("Done! Your table at %s is booked for tonight at %s for %d guests. Reference %s.",
				venue, bookingTime, bookingGuests, ref),
			Mode: domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactBooking, Data: BookingData{
					Venue:     venue,
					Time:      bookingTime,
					Guests:    bookingGuests,
					Status:    "confirmed",
					Reference: ref,
				}},
				domain.Chips(
					"Invite friends to dinner at "+venue,
					"Book a ride to "+venue,
				),
			},
		}
	},
}
