package handler

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/flow"
	"github.com/set-night/citycopilot/internal/scenario"
	"github.com/set-night/citycopilot/internal/synth"
)

type stubRemote struct{}

func (stubRemote) ListThreads(context.Context) ([]domain.ThreadSummary, error) {
	return []domain.ThreadSummary{{ID: "thread_1", Title: "parking"}}, nil
}

func (stubRemote) GetThread(context.Context, string) ([]domain.Message, error) {
	return nil, domain.ErrThreadNotFound
}

func (stubRemote) SaveThread(context.Context, string, []domain.Message, string) error { return nil }

func (stubRemote) Seed(context.Context) error { return nil }

func (stubRemote) SimulateChat(context.Context, string) (domain.Message, error) {
	return domain.Message{}, domain.ErrVerticalNotFound
}

func newSessions(t *testing.T) *Sessions {
	t.Helper()
	reg, err := scenario.Default()
	require.NoError(t, err)
	s := NewSessions(synth.New(flow.New(), reg, nil, time.Second), stubRemote{}, time.Second, 2*time.Second)
	t.Cleanup(s.Close)
	return s
}

func TestSessions_OneStorePerChat(t *testing.T) {
	s := newSessions(t)
	ctx := context.Background()
	from := &models.User{ID: 42, FirstName: "Sara"}

	a := s.Store(ctx, nil, 1, from)
	require.NotNil(t, a)
	assert.Same(t, a, s.Store(ctx, nil, 1, from))
	assert.NotSame(t, a, s.Store(ctx, nil, 2, nil))

	assert.Len(t, a.Snapshot().Threads, 1, "thread list loaded on creation")

	reply, ok := a.Send(ctx, "parking", nil)
	require.True(t, ok)
	msgs := a.Snapshot().Messages
	user, found := userMessageBefore(msgs, reply.ID, "parking")
	require.True(t, found)
	assert.Equal(t, "42", user.Sender.ID)
	assert.Equal(t, "Sara", user.Sender.Name)
}

func TestUserMessageBefore(t *testing.T) {
	msgs := []domain.Message{
		{ID: "u1", Role: domain.RoleUser, Content: "parking"},
		{ID: "a1", Role: domain.RoleAssistant},
		{ID: "u2", Role: domain.RoleUser, Content: "traffic"},
		{ID: "u3", Role: domain.RoleUser, Content: "parking"},
		{ID: "a2", Role: domain.RoleAssistant},
	}

	got, ok := userMessageBefore(msgs, "a2", "parking")
	require.True(t, ok)
	assert.Equal(t, "u3", got.ID)

	_, ok = userMessageBefore(msgs, "a1", "traffic")
	assert.False(t, ok)
	_, ok = userMessageBefore(msgs, "missing", "parking")
	assert.False(t, ok)
}

func TestChatSession_Links(t *testing.T) {
	cs := &chatSession{links: make(map[int]string)}
	cs.link(10, "m1")

	id, ok := cs.linked(10)
	assert.True(t, ok)
	assert.Equal(t, "m1", id)
	_, ok = cs.linked(11)
	assert.False(t, ok)
}

func TestSessions_EvictIdle(t *testing.T) {
	s := newSessions(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()
	from := &models.User{ID: 42, FirstName: "Sara"}

	first := s.Store(ctx, nil, 1, from)
	_, ok := first.Send(ctx, "parking", nil)
	require.True(t, ok)
	threadID := first.Snapshot().ThreadID
	require.NotEmpty(t, threadID)

	now = now.Add(10 * time.Minute)
	s.Store(ctx, nil, 2, nil)
	now = now.Add(25 * time.Minute)

	assert.Equal(t, 1, s.Evict(30*time.Minute))
	assert.Nil(t, s.chat(1))
	assert.NotNil(t, s.chat(2))

	_, ok = first.Send(ctx, "traffic", nil)
	assert.False(t, ok, "evicted store is closed")

	again := s.Store(ctx, nil, 1, from)
	assert.NotSame(t, first, again)
	assert.Equal(t, threadID, again.Snapshot().ThreadID, "active thread resumed")
}
