package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/citycopilot/internal/domain"
)

func TestSeedThreads(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	threads := SeedThreads(now)
	require.Len(t, threads, len(seedConversations))

	ids := make(map[string]struct{})
	for _, th := range threads {
		assert.True(t, strings.HasPrefix(th.ID, "thread_"))
		ids[th.ID] = struct{}{}
		assert.NotEmpty(t, th.Title)
		require.NotEmpty(t, th.Messages)
		assert.Equal(t, domain.RoleUser, th.Messages[0].Role)

		for i := 1; i < len(th.Messages); i++ {
			assert.True(t, th.Messages[i].Timestamp.After(th.Messages[i-1].Timestamp))
		}
		assert.True(t, th.Messages[len(th.Messages)-1].Timestamp.Before(now))
	}
	assert.Len(t, ids, len(threads))
}

func TestDefaultTitle(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleAssistant, Content: "Welcome"},
		{Role: domain.RoleUser, Content: "Where can I find a good plumber in the north district today?"},
	}
	assert.Equal(t, "Where can I find a good plumber in the n...", defaultTitle(msgs))
	assert.Equal(t, "New conversation", defaultTitle(nil))
}

func TestTimestamptzConversion(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, pgTimestamptzToTime(timeToPgTimestamptz(ts)))
	assert.False(t, timeToPgTimestamptz(time.Time{}).Valid)
	assert.True(t, pgTimestamptzToTime(timeToPgTimestamptz(time.Time{})).IsZero())
}
