package domain

// Response is what the synthesizer produces for one turn.
type Response struct {
	Content        string
	Mode           Mode
	Artifacts      []Artifact
	SimulatedEvent string
}

type SystemActionType string

const (
	ActionAddMember     SystemActionType = "system_add_member"
	ActionRemoveMember  SystemActionType = "system_remove_member"
	ActionSimulateEvent SystemActionType = "simulate_event"
)

// SystemAction is a non-text event fed through the same pipeline as user text.
type SystemAction struct {
	Type         SystemActionType `json:"type"`
	IDs          []string         `json:"ids,omitempty"`
	ShareHistory bool             `json:"shareHistory,omitempty"`
	Name         string           `json:"name,omitempty"`
}

// Simulated event names understood by the synthesizer.
const (
	EventFriendVoted       = "friend_voted"
	EventDriverArrived     = "driver_arrived"
	EventInviteAccepted    = "invite_accepted"
	EventAgentSyncComplete = "agent_sync_complete"
)
