package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/citycopilot/internal/domain"
)

func job(threadID, title string, n int) saveJob {
	return saveJob{threadID: threadID, title: title, messages: make([]domain.Message, n)}
}

func drain(t *testing.T, q *saveQueue) []saveJob {
	t.Helper()
	q.close()
	var out []saveJob
	for {
		j, ok := q.pop()
		if !ok {
			return out
		}
		out = append(out, j)
	}
}

func TestSaveQueue_CoalescesPerThread(t *testing.T) {
	q := newSaveQueue()
	require.True(t, q.push(job("a", "Parking", 3)))
	require.True(t, q.push(job("b", "Rides", 3)))
	require.True(t, q.push(job("a", "", 5)))
	require.True(t, q.push(job("a", "", 7)))

	jobs := drain(t, q)
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].threadID)
	assert.Equal(t, "a", jobs[1].threadID)
	assert.Equal(t, "Parking", jobs[1].title, "first title survives coalescing")
	assert.Len(t, jobs[1].messages, 7)
}

func TestSaveQueue_BarrierIsNotCrossed(t *testing.T) {
	q := newSaveQueue()
	done := make(chan struct{})
	q.push(job("a", "Parking", 3))
	q.push(saveJob{done: done})
	q.push(job("a", "", 5))

	jobs := drain(t, q)
	require.Len(t, jobs, 3)
	assert.Len(t, jobs[0].messages, 3)
	assert.NotNil(t, jobs[1].done)
	assert.Len(t, jobs[2].messages, 5)
	assert.Empty(t, jobs[2].title)
}

func TestSaveQueue_Closed(t *testing.T) {
	q := newSaveQueue()
	q.push(job("a", "", 1))
	q.close()

	assert.False(t, q.push(job("b", "", 1)))
	j, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, "a", j.threadID)
	_, ok = q.pop()
	assert.False(t, ok)
}
