package flow

import (
	"fmt"
	"regexp"

	"github.com/set-night/citycopilot/internal/domain"
)

type AgentStatus struct {
	Agent  string `json:"agent"`
	Status string `json:"status"`
}

type AgentSyncData struct {
	Goal   string        `json:"goal"`
	Agents []AgentStatus `json:"agents"`
}

var syncAgents = []string{"Dining agent", "Mobility agent", "Calendar agent"}

var agentSync = Handler{
	Name:    "agent_sync",
	Pattern: regexp.MustCompile(`(?i)^(?:negotiate with (?:the |my )?agents|start (?:an )?agent sync)\b(?:\s+(?:for|on|about)\s+(.+))?`),
	Respond: func(m []string) domain.Response {
		goal := clean(m[1])
		if goal == "" {
			goal = "tonight's plan"
		}

		agents := make([]AgentStatus, len(syncAgents))
		for i, a := range syncAgents {
			agents[i] = AgentStatus{Agent: a, Status: "negotiating"}
		}

		return domain.Response{
			Content: fmt.Sprintf("I asked your agents to work out %s together. I will propose a plan once they agree.", goal),
			Mode:    domain.ModePropose,
			Artifacts: []domain.Artifact{
				{Type: domain.ArtifactAgentSync, Data: AgentSyncData{Goal: goal, Agents: agents}},
			},
			SimulatedEvent: domain.EventAgentSyncComplete,
		}
	},
}
