package synth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/flow"
	"github.com/set-night/citycopilot/internal/gateway"
	"github.com/set-night/citycopilot/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnricher struct {
	available bool
	resp      domain.Response
	ok        bool
	calls     int
}

func (f *fakeEnricher) Available() bool { return f.available }

func (f *fakeEnricher) Enrich(ctx context.Context, text string) (domain.Response, bool) {
	f.calls++
	return f.resp, f.ok
}

func newSynth(t *testing.T, gw Enricher) *Synthesizer {
	t.Helper()
	reg, err := scenario.Default()
	require.NoError(t, err)
	return New(flow.New(), reg, gw, time.Second)
}

func TestRespond_FlowBeatsRegistry(t *testing.T) {
	reg, err := scenario.Default()
	require.NoError(t, err)

	input := "book table at Lusin"
	_, inRegistry := reg.Match(input)
	require.True(t, inRegistry, "input must be recognized by both tiers")

	want, _ := flow.New().Match(input, nil)
	got := newSynth(t, nil).Respond(context.Background(), input, nil)
	assert.Equal(t, want, got)
	assert.Equal(t, domain.ModeExecute, got.Mode)
}

func TestRespond_Deterministic(t *testing.T) {
	s := newSynth(t, nil)
	for _, in := range []string{
		"Find the best rated coffee shops nearby",
		"Book a ride to the airport",
		"start a vote on pizza or sushi",
		"gibberish xyz",
	} {
		a := s.Respond(context.Background(), in, nil)
		b := s.Respond(context.Background(), in, nil)
		assert.Empty(t, cmp.Diff(a, b), in)
	}
}

func TestRespond_FallbackTotality(t *testing.T) {
	s := newSynth(t, nil)
	for _, in := range []string{"", "   ", "qwxz", "\x00\xff", "🙂🙂"} {
		resp := s.Respond(context.Background(), in, nil)
		assert.Equal(t, Fallback(), resp, "input %q", in)
		assert.NotEmpty(t, resp.Content)
	}
}

func TestRespond_CoffeeScenario(t *testing.T) {
	resp := newSynth(t, nil).Respond(context.Background(), "Find the best rated coffee shops nearby", nil)

	reg, _ := scenario.Default()
	entry, ok := reg.Lookup("Find the best rated coffee shops nearby")
	require.True(t, ok)
	assert.Equal(t, "Food & Drink", entry.Category)

	assert.Equal(t, entry.Response, resp.Content)
	require.Len(t, resp.Artifacts, 2)
	assert.Equal(t, entry.Artifact, resp.Artifacts[0])
	assert.Equal(t, domain.ArtifactChips, resp.Artifacts[1].Type)
}

func TestRespond_AddMembers(t *testing.T) {
	resp := newSynth(t, nil).Respond(context.Background(), "", &domain.SystemAction{
		Type:         domain.ActionAddMember,
		IDs:          []string{"u1", "u2"},
		ShareHistory: true,
	})
	assert.Contains(t, resp.Content, "2 new members")
	assert.Contains(t, resp.Content, "full chat history")
	assert.Equal(t, domain.ModeExecute, resp.Mode)

	resp = newSynth(t, nil).Respond(context.Background(), "", &domain.SystemAction{
		Type: domain.ActionAddMember,
		IDs:  []string{"u1"},
	})
	assert.Contains(t, resp.Content, "1 new member to")
	assert.Contains(t, resp.Content, "from now on")
}

func TestRespond_SystemActionBypassesText(t *testing.T) {
	resp := newSynth(t, nil).Respond(context.Background(), "book table at Lusin", &domain.SystemAction{
		Type: domain.ActionRemoveMember,
		IDs:  []string{"u1"},
	})
	assert.Equal(t, "Removed 1 member from the conversation.", resp.Content)
}

func TestRespond_SimulatedEvents(t *testing.T) {
	s := newSynth(t, nil)
	for _, name := range []string{
		domain.EventFriendVoted,
		domain.EventDriverArrived,
		domain.EventInviteAccepted,
		domain.EventAgentSyncComplete,
		"something_else",
	} {
		resp := s.Respond(context.Background(), "", &domain.SystemAction{Type: domain.ActionSimulateEvent, Name: name})
		assert.NotEmpty(t, resp.Content, name)
		assert.NotEqual(t, Fallback().Content, resp.Content, name)
	}
}

func TestRespond_UnknownActionFallsThrough(t *testing.T) {
	resp := newSynth(t, nil).Respond(context.Background(), "Send invite", &domain.SystemAction{Type: "wave"})
	assert.Equal(t, domain.EventInviteAccepted, resp.SimulatedEvent)
}

func TestRespond_GatewayTier(t *testing.T) {
	gw := &fakeEnricher{available: true, ok: true, resp: domain.Response{Content: "live"}}
	s := newSynth(t, gw)

	assert.Equal(t, "live", s.Respond(context.Background(), "show my invoices", nil).Content)

	// Local tiers run first.
	s.Respond(context.Background(), "Find coffee shops nearby", nil)
	assert.Equal(t, 1, gw.calls)

	gw.available = false
	assert.Equal(t, Fallback(), s.Respond(context.Background(), "show my invoices", nil))
	assert.Equal(t, 1, gw.calls)
}

func TestRespond_GatewayHTTP500Degrades(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := gateway.NewAdapter(gateway.NewClient(srv.URL, "key", "", time.Second))
	s := newSynth(t, gw)

	resp := s.Respond(context.Background(), "show me products on sale", nil)
	assert.Equal(t, Fallback(), resp)
	assert.EqualValues(t, 1, calls.Load())

	resp = s.Respond(context.Background(), "coffee shop products", nil)
	assert.NotEqual(t, Fallback(), resp, "registry answers before the gateway is tried")
	assert.EqualValues(t, 1, calls.Load())
}
