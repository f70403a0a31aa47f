package session

import (
	"sync"

	"github.com/set-night/citycopilot/internal/domain"
)

type saveJob struct {
	threadID string
	title    string
	messages []domain.Message
	done     chan struct{}
}

// saveQueue is the ordered list of pending saves. push never blocks: a save
// for a thread that is still waiting is replaced by the newer snapshot, so a
// stalled remote holds at most one pending save per thread.
type saveQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []saveJob
	closed bool
}

func newSaveQueue() *saveQueue {
	q := &saveQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push reports false once the queue is closed.
func (q *saveQueue) push(job saveJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if job.done == nil {
		// Jobs ahead of a barrier stay put so the waiting Flush covers them.
		for i := len(q.jobs) - 1; i >= 0 && q.jobs[i].done == nil; i-- {
			if q.jobs[i].threadID != job.threadID {
				continue
			}
			if job.title == "" {
				job.title = q.jobs[i].title
			}
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			break
		}
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()
	return true
}

// pop blocks until a job is available. It reports false when the queue is
// closed and drained.
func (q *saveQueue) pop() (saveJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.jobs) == 0 {
		return saveJob{}, false
	}
	job := q.jobs[0]
	q.jobs[0] = saveJob{}
	q.jobs = q.jobs[1:]
	return job, true
}

func (q *saveQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *saveQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
