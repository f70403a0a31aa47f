package flow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/shopspring/decimal"
)

type rideTier struct {
	Name string
	Base decimal.Decimal
	ETA  string
}

var rideTiers = []rideTier{
	{Name: "Economy", Base: decimal.NewFromInt(25), ETA: "4 min"},
	{Name: "Comfort", Base: decimal.NewFromInt(38), ETA: "6 min"},
	{Name: "Premium", Base: decimal.NewFromInt(62), ETA: "9 min"},
}

type RideOption struct {
	Tier   string `json:"tier"`
	ETA    string `json:"eta"`
	Price  string `json:"price"`
	Action string `json:"action"`
}

type RideOptionsData struct {
	Destination string       `json:"destination"`
	Options     []RideOption `json:"options"`
}

type TrackerData struct {
	Title       string   `json:"title"`
	Tier        string   `json:"tier"`
	Destination string   `json:"destination,omitempty"`
	Price       string   `json:"price"`
	Status      string   `json:"status"`
	Steps       []string `json:"steps"`
}

func formatSAR(d decimal.Decimal) string {
	return "SAR " + d.StringFixed(2)
}

// quote prices a tier for a destination. The surcharge is derived from the
// destination so the same request always gets the same price.
func quote(t rideTier, destination string) decimal.Decimal {
	surcharge := decimal.NewFromInt(int64(stable(destination, 20)))
	return t.Base.Add(surcharge)
}

var rideQuote = Handler{
	Name:    "ride_quote",
	Pattern: regexp.MustCompile(`(?i)^(?:book|get|find) (?:me )?a ride to (.+)$`),
	Respond: func(m []string) domain.Response {
		dest := clean(m[1])

		options := make([]RideOption, 0, len(rideTiers))
		labels := make([]string, 0, len(rideTiers))
		for _, t := range rideTiers {
			label := fmt.Sprintf("Book Now %s to %s %s", t.Name, dest, formatSAR(quote(t, dest)))
			options = append(options, RideOption{
				Tier:   t.Name,
				ETA:    t.ETA,
				Price:  formatSAR(quote(t, dest)),
				Action: label,
			})
			labels = append(labels, label)
		}

		return domain.Response{
			Content: fmt.Sprintf("Here are the ride options to %s. Prices are fixed before you book.", dest),
			Mode:    domain.ModePropose,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactRideOptions, Data: RideOptionsData{Destination: dest, Options: options}},
				domain.Chips(labels...),
			},
		}
	},
}

var rideConfirm = Handler{
	Name:    "ride_confirm",
	Pattern: regexp.MustCompile(`(?i)^book now\s+(.*?)\s*\bsar\s*(\d+(?:\.\d+)?)`),
	Respond: func(m []string) domain.Response {
		tier, dest := clean(m[1]), ""
		if i := strings.Index(strings.ToLower(tier), " to "); i >= 0 {
			tier, dest = clean(tier[:i]), clean(tier[i+4:])
		}
		if tier == "" {
			tier = "Economy"
		}
		tier = titleCase(tier)

		price, err := decimal.NewFromString(m[2])
		if err != nil {
			price = decimal.Zero
		}

		content := fmt.Sprintf("Your %s ride is confirmed for %s. Your driver is on the way.", tier, formatSAR(price))
		title := tier + " ride"
		if dest != "" {
			content = fmt.Sprintf("Your %s ride to %s is confirmed for %s. Your driver is on the way.", tier, dest, formatSAR(price))
			title = "Ride to " + dest
		}

		return domain.Response{
			Content: content,
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactTracker, Data: TrackerData{
					Title:       title,
					Tier:        tier,
					Destination: dest,
					Price:       formatSAR(price),
					Status:      "driver_assigned",
					Steps:       []string{"Driver assigned", "Driver arriving", "On trip", "Arrived"},
				}},
				domain.Chips("Share my trip"),
			},
			SimulatedEvent: domain.EventDriverArrived,
		}
	},
}
