package flow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/set-night/citycopilot/internal/domain"
)

var defaultPollOptions = []string{"I'm in", "Maybe", "Can't make it"}

type PollOption struct {
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

type PollData struct {
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
	Status   string       `json:"status"`
}

// pollOptions reads "pizza or sushi" style topics; anything else gets the
// default attendance options.
func pollOptions(topic string) []string {
	parts := strings.Split(topic, " or ")
	if len(parts) < 2 {
		return defaultPollOptions
	}
	var out []string
	for _, p := range parts {
		if p = clean(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) < 2 {
		return defaultPollOptions
	}
	return out
}

var pollStart = Handler{
	Name:    "poll_start",
	Pattern: regexp.MustCompile(`(?i)^(?:start|create) (?:a )?(?:vote|poll)(?: on| about| for)? (.+)$`),
	Respond: func(m []string) domain.Response {
		topic := clean(m[1])
		labels := pollOptions(topic)

		options := make([]PollOption, len(labels))
		chips := make([]string, len(labels))
		for i, l := range labels {
			options[i] = PollOption{Label: l}
			chips[i] = "Vote for " + l
		}

		return domain.Response{
			Content: fmt.Sprintf("I started a vote on %s and shared it with the group. Results update as people vote.", topic),
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactPoll, Data: PollData{Question: topic, Options: options, Status: "open"}},
				domain.Chips(chips...),
			},
			SimulatedEvent: domain.EventFriendVoted,
		}
	},
}

var pollVote = Handler{
	Name:    "poll_vote",
	Pattern: regexp.MustCompile(`(?i)^vote for (.+)$`),
	Respond: func(m []string) domain.Response {
		choice := clean(m[1])
		return domain.Response{
			Content: fmt.Sprintf("Your vote for %s is in.", choice),
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactPoll, Data: PollData{
					Options: []PollOption{{Label: choice, Votes: 1}},
					Status:  "voted",
				}},
			},
		}
	},
}
