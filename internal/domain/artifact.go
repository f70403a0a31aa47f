package domain

type ArtifactType string

const (
	ArtifactChips        ArtifactType = "chips"
	ArtifactCarousel     ArtifactType = "carousel"
	ArtifactList         ArtifactType = "list"
	ArtifactMap          ArtifactType = "map"
	ArtifactTracker      ArtifactType = "tracker"
	ArtifactMenu         ArtifactType = "menu"
	ArtifactRideOptions  ArtifactType = "ride_options"
	ArtifactBooking      ArtifactType = "booking"
	ArtifactInvite       ArtifactType = "invite"
	ArtifactPoll         ArtifactType = "poll"
	ArtifactAgentSync    ArtifactType = "agent_sync"
	ArtifactMemberUpdate ArtifactType = "member_update"
	ArtifactProfile      ArtifactType = "profile"
	ArtifactSummary      ArtifactType = "summary"
)

var artifactTypes = map[ArtifactType]struct{}{
	ArtifactChips:        {},
	ArtifactCarousel:     {},
	ArtifactList:         {},
	ArtifactMap:          {},
	ArtifactTracker:      {},
	ArtifactMenu:         {},
	ArtifactRideOptions:  {},
	ArtifactBooking:      {},
	ArtifactInvite:       {},
	ArtifactPoll:         {},
	ArtifactAgentSync:    {},
	ArtifactMemberUpdate: {},
	ArtifactProfile:      {},
	ArtifactSummary:      {},
}

func (t ArtifactType) Valid() bool {
	_, ok := artifactTypes[t]
	return ok
}

// Artifact is a rendering directive attached to a message. Data is passed
// through to the UI untouched.
type Artifact struct {
	Type ArtifactType `json:"type"`
	Data any          `json:"data"`
}

type ChipsData struct {
	Labels []string `json:"labels"`
}

func Chips(labels ...string) Artifact {
	return Artifact{Type: ArtifactChips, Data: ChipsData{Labels: labels}}
}
