package session

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/set-night/citycopilot/internal/metrics"
)

type timerKey struct {
	threadID string
	name     string
}

// Scheduler delivers simulated follow-up events after a random delay. At
// most one timer is pending per (thread, event) pair.
type Scheduler struct {
	min time.Duration
	max time.Duration

	mu      sync.Mutex
	timers  map[timerKey]*time.Timer
	stopped bool
}

func NewScheduler(minDelay, maxDelay time.Duration) *Scheduler {
	return &Scheduler{
		min:    minDelay,
		max:    maxDelay,
		timers: make(map[timerKey]*time.Timer),
	}
}

func (s *Scheduler) delay() time.Duration {
	if s.max <= s.min {
		return s.min
	}
	return s.min + rand.N(s.max-s.min)
}

// Schedule runs fn after the delay. A pending timer for the same thread and
// event is replaced.
func (s *Scheduler) Schedule(threadID, name string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	key := timerKey{threadID: threadID, name: name}
	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(s.delay(), func() {
		s.mu.Lock()
		if s.timers[key] != t {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()

		metrics.SimulationsFired.WithLabelValues(name).Inc()
		fn()
	})
	s.timers[key] = t
}

// Cancel drops every pending timer for the thread.
func (s *Scheduler) Cancel(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		if key.threadID == threadID {
			t.Stop()
			delete(s.timers, key)
		}
	}
}

// Pending reports how many timers are waiting for the thread.
func (s *Scheduler) Pending(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.timers {
		if key.threadID == threadID {
			n++
		}
	}
	return n
}

// Len reports how many timers are waiting across all threads.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels everything and rejects further schedules.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
