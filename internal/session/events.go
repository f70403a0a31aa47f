package session

import "github.com/set-night/citycopilot/internal/domain"

type EventType string

const (
	EventMessageAdded   EventType = "message_added"
	EventMessageUpdated EventType = "message_updated"
	EventMessageDeleted EventType = "message_deleted"
	EventThreadLoaded   EventType = "thread_loaded"
	EventThreadsUpdated EventType = "threads_updated"
)

// Event is delivered to subscribers after a mutation has been committed.
type Event struct {
	Type     EventType
	ThreadID string
	Message  domain.Message
	// Simulated marks replies produced by a scheduled follow-up rather than
	// by the user.
	Simulated bool
}

// Subscribe registers fn for every future event and returns a func that
// removes it. fn is called outside the store lock, on the goroutine that
// made the change.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.mu.Lock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	ThreadID   string
	Messages   []domain.Message
	Threads    []domain.ThreadSummary
	Processing bool
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	threads := make([]domain.ThreadSummary, len(s.threads))
	copy(threads, s.threads)
	return Snapshot{
		ThreadID:   s.activeID,
		Messages:   domain.CloneMessages(s.cache[s.activeID]),
		Threads:    threads,
		Processing: s.processing > 0,
	}
}

// Groups splits the messages into display runs: consecutive assistant
// replies in suggest mode share a run, every other message stands alone.
func (s Snapshot) Groups() [][]domain.Message {
	var groups [][]domain.Message
	for _, m := range s.Messages {
		if isSuggestion(m) && len(groups) > 0 {
			last := groups[len(groups)-1]
			if isSuggestion(last[len(last)-1]) {
				groups[len(groups)-1] = append(last, m)
				continue
			}
		}
		groups = append(groups, []domain.Message{m})
	}
	return groups
}

func isSuggestion(m domain.Message) bool {
	return m.Role == domain.RoleAssistant && m.Mode == domain.ModeSuggest
}
