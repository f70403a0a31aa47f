package synth

import (
	"fmt"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/flow"
)

type MemberUpdateData struct {
	Action       string   `json:"action"`
	MemberIDs    []string `json:"memberIds"`
	ShareHistory bool     `json:"shareHistory"`
}

func members(n int, adjective string) string {
	noun := "members"
	if n == 1 {
		noun = "member"
	}
	if adjective != "" {
		return fmt.Sprintf("%d %s %s", n, adjective, noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}

// systemResponse answers recognized system actions. Unrecognized action
// types fall through to text matching.
func systemResponse(action *domain.SystemAction) (domain.Response, bool) {
	if action == nil {
		return domain.Response{}, false
	}

	switch action.Type {
	case domain.ActionAddMember:
		history := "They will only see messages from now on."
		if action.ShareHistory {
			history = "They can see the full chat history."
		}
		return domain.Response{
			Content: fmt.Sprintf("Added %s to the conversation. %s", members(len(action.IDs), "new"), history),
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{{Type: domain.ArtifactMemberUpdate, Data: MemberUpdateData{
				Action:       "added",
				MemberIDs:    action.IDs,
				ShareHistory: action.ShareHistory,
			}}},
		}, true

	case domain.ActionRemoveMember:
		return domain.Response{
			Content: fmt.Sprintf("Removed %s from the conversation.", members(len(action.IDs), "")),
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{{Type: domain.ArtifactMemberUpdate, Data: MemberUpdateData{
				Action:    "removed",
				MemberIDs: action.IDs,
			}}},
		}, true

	case domain.ActionSimulateEvent:
		return simulatedEvent(action.Name), true
	}
	return domain.Response{}, false
}

func simulatedEvent(name string) domain.Response {
	switch name {
	case domain.EventFriendVoted:
		return domain.Response{
			Content: "Sara just voted. 2 of 3 people have answered so far.",
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactPoll, Data: flow.PollData{Status: "open", Options: []flow.PollOption{
					{Label: "I'm in", Votes: 2},
				}}},
			},
		}
	case domain.EventDriverArrived:
		return domain.Response{
			Content: "Your driver has arrived at the pickup point.",
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactTracker, Data: flow.TrackerData{Title: "Your ride", Status: "driver_arrived",
					Steps: []string{"Driver assigned", "Driver arriving", "On trip", "Arrived"}}},
			},
		}
	case domain.EventInviteAccepted:
		return domain.Response{
			Content: "Good news, your invitation was accepted.",
			Mode:    domain.ModeExecute,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactInvite, Data: flow.InviteData{Status: "accepted"}},
				domain.Chips("Book a ride to the venue"),
			},
		}
	case domain.EventAgentSyncComplete:
		return domain.Response{
			Content: "Your agents agreed on a plan: dinner at Najd Village at 20:00 with a Comfort ride there. Shall I confirm?",
			Mode:    domain.ModePropose,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactAgentSync, Data: flow.AgentSyncData{
					Goal: "tonight's plan",
					Agents: []flow.AgentStatus{
						{Agent: "Dining agent", Status: "agreed"},
						{Agent: "Mobility agent", Status: "agreed"},
						{Agent: "Calendar agent", Status: "agreed"},
					},
				}},
				domain.Chips("Book Table at Najd Village", "Book a ride to Najd Village"),
			},
		}
	}
	return domain.Response{
		Content: "You have a new update in this conversation.",
		Mode:    domain.ModeSuggest,
	}
}
