package flow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/set-night/citycopilot/internal/domain"
)

type InviteData struct {
	Event    string   `json:"event"`
	Invitees []string `json:"invitees"`
	Draft    string   `json:"draft"`
	Status   string   `json:"status"`
}

// splitNames turns "sara, omar and lina" into three names.
func splitNames(s string) []string {
	s = strings.NewReplacer(" and ", ",", " & ", ",").Replace(s)
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = clean(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var inviteDraft = Handler{
	Name:    "invite_draft",
	Pattern: regexp.MustCompile(`(?i)^invite (.+?) to (.+)$`),
	Respond: func(m []string) domain.Response {
		invitees := splitNames(m[1])
		event := clean(m[2])
		draft := fmt.Sprintf("Hey! Would you like to join me for %s? Let me know so I can plan.", event)

		return domain.Response{
			Content: fmt.Sprintf("I drafted an invitation to %s for %s. Want me to send it?", event, strings.Join(invitees, ", ")),
			Mode:    domain.ModePropose,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactInvite, Data: InviteData{
					Event:    event,
					Invitees: invitees,
					Draft:    draft,
					Status:   "draft",
				}},
				domain.Chips("Send invite"),
			},
		}
	},
}

var inviteSend = Handler{
	Name:    "invite_send",
	Pattern: regexp.MustCompile(`(?i)^send (?:the )?invit(?:e|ation)s?\b`),
	Respond: func(m []string) domain.Response {
		return domain.Response{
			Content: "Invitation sent. I will let you know as soon as someone replies.",
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactInvite, Data: InviteData{Status: "sent"}},
			},
			SimulatedEvent: domain.EventInviteAccepted,
		}
	},
}
