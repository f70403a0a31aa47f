// Package session owns the conversation state for one user: the active
// thread, its messages and the list of known threads. All mutations go
// through Store, which persists the full thread after each change.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/metrics"
)

const welcomeText = "Hi! I'm your city copilot. Ask me about places to eat, rides, city services or plans with friends."

// Responder turns a user turn into an assistant reply.
type Responder interface {
	Respond(ctx context.Context, text string, action *domain.SystemAction) domain.Response
}

// Remote is the session API the store persists through.
type Remote interface {
	ListThreads(ctx context.Context) ([]domain.ThreadSummary, error)
	GetThread(ctx context.Context, id string) ([]domain.Message, error)
	SaveThread(ctx context.Context, id string, messages []domain.Message, title string) error
	Seed(ctx context.Context) error
	SimulateChat(ctx context.Context, verticalID string) (domain.Message, error)
}

type Options struct {
	Responder Responder
	Remote    Remote
	// Scheduler is optional; without it simulated follow-ups are dropped.
	Scheduler *Scheduler
	Me        domain.Sender
	Now       func() time.Time
}

type Store struct {
	responder Responder
	remote    Remote
	scheduler *Scheduler
	me        domain.Sender
	now       func() time.Time

	mu         sync.Mutex
	activeID   string
	cache      map[string][]domain.Message
	known      map[string]bool
	threads    []domain.ThreadSummary
	processing int
	subs       map[int]func(Event)
	nextSub    int
	closed     bool

	queue *saveQueue
	wg    sync.WaitGroup
}

func NewStore(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Store{
		responder: opts.Responder,
		remote:    opts.Remote,
		scheduler: opts.Scheduler,
		me:        opts.Me,
		now:       now,
		cache:     map[string][]domain.Message{"": {welcomeMessage(now())}},
		known:     make(map[string]bool),
		subs:      make(map[int]func(Event)),
		queue:     newSaveQueue(),
	}
	s.wg.Add(1)
	go s.persistLoop()
	return s
}

func welcomeMessage(now time.Time) domain.Message {
	return domain.Message{
		ID:        "welcome",
		Role:      domain.RoleAssistant,
		Content:   welcomeText,
		Timestamp: now,
		Mode:      domain.ModeSuggest,
		Artifacts: []domain.Artifact{domain.Chips(
			"Find coffee shops nearby",
			"Book a ride to the airport",
			"Report a pothole",
		)},
	}
}

// Init loads the thread list and, when id is set, that thread's history
// concurrently.
func (s *Store) Init(ctx context.Context, id string) error {
	var (
		threads []domain.ThreadSummary
		history []domain.Message
		found   = true
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		threads, err = s.remote.ListThreads(gctx)
		if err != nil {
			return fmt.Errorf("load thread list: %w", err)
		}
		return nil
	})
	if id != "" {
		g.Go(func() error {
			var err error
			history, err = s.remote.GetThread(gctx, id)
			if errors.Is(err, domain.ErrThreadNotFound) {
				found = false
				return nil
			}
			if err != nil {
				return fmt.Errorf("load thread %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.setThreadsLocked(threads)
	if id != "" {
		s.activeID = id
		s.cache[id] = history
		s.known[id] = s.known[id] || found
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventThreadsUpdated})
	s.emit(Event{Type: EventThreadLoaded, ThreadID: id})
	return nil
}

func (s *Store) setThreadsLocked(threads []domain.ThreadSummary) {
	s.threads = slices.Clone(threads)
	for _, t := range threads {
		s.known[t.ID] = true
	}
}

// LoadThread makes id the active thread. An empty id starts a fresh
// conversation without touching the network. A thread already held locally
// is switched to directly, since the local copy is never older than the
// remote one.
func (s *Store) LoadThread(ctx context.Context, id string) error {
	if id == "" {
		s.mu.Lock()
		s.activeID = ""
		s.cache[""] = []domain.Message{welcomeMessage(s.now())}
		s.mu.Unlock()
		s.emit(Event{Type: EventThreadLoaded})
		return nil
	}

	s.mu.Lock()
	_, cached := s.cache[id]
	if cached {
		s.activeID = id
	}
	s.mu.Unlock()
	if cached {
		s.emit(Event{Type: EventThreadLoaded, ThreadID: id})
		return nil
	}

	history, err := s.remote.GetThread(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrThreadNotFound) {
		return fmt.Errorf("load thread %s: %w", id, err)
	}

	s.mu.Lock()
	s.activeID = id
	s.cache[id] = history
	s.mu.Unlock()
	s.emit(Event{Type: EventThreadLoaded, ThreadID: id})
	return nil
}

// ensureThreadLocked assigns a thread id on the first send of a fresh
// conversation, carrying over the welcome message. Ids already held or
// listed are skipped a millisecond at a time.
func (s *Store) ensureThreadLocked() string {
	if s.activeID == "" {
		at := s.now()
		id := domain.NewThreadID(at)
		for s.taken(id) {
			at = at.Add(time.Millisecond)
			id = domain.NewThreadID(at)
		}
		s.activeID = id
		s.cache[s.activeID] = s.cache[""]
		delete(s.cache, "")
	}
	return s.activeID
}

func (s *Store) taken(id string) bool {
	_, cached := s.cache[id]
	return cached || s.known[id]
}

// Send runs one turn against the active thread and returns the assistant
// reply. Blank text with no action is ignored.
func (s *Store) Send(ctx context.Context, text string, action *domain.SystemAction) (domain.Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" && action == nil {
		return domain.Message{}, false
	}
	s.mu.Lock()
	threadID := s.ensureThreadLocked()
	s.mu.Unlock()
	return s.sendTo(ctx, threadID, text, action)
}

// sendTo appends to threadID regardless of which thread is active by the
// time the reply is ready.
func (s *Store) sendTo(ctx context.Context, threadID, text string, action *domain.SystemAction) (domain.Message, bool) {
	var userEvent *Event
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Message{}, false
	}
	if text != "" {
		sender := s.me
		sender.IsMe = true
		msg := domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleUser,
			Sender:    &sender,
			Content:   text,
			Timestamp: s.now(),
		}
		s.cache[threadID] = append(s.cache[threadID], msg)
		userEvent = &Event{Type: EventMessageAdded, ThreadID: threadID, Message: msg.Clone()}
	}
	s.processing++
	s.mu.Unlock()

	if userEvent != nil {
		s.emit(*userEvent)
	}

	resp := s.responder.Respond(ctx, text, action)
	reply := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   resp.Content,
		Timestamp: s.now(),
		Artifacts: resp.Artifacts,
		Mode:      resp.Mode,
	}

	s.mu.Lock()
	s.processing--
	s.cache[threadID] = append(s.cache[threadID], reply)
	s.persistLocked(threadID)
	s.mu.Unlock()

	simulated := action != nil && action.Type == domain.ActionSimulateEvent
	s.emit(Event{Type: EventMessageAdded, ThreadID: threadID, Message: reply.Clone(), Simulated: simulated})

	if resp.SimulatedEvent != "" && s.scheduler != nil {
		name := resp.SimulatedEvent
		s.scheduler.Schedule(threadID, name, func() {
			s.sendTo(context.Background(), threadID, "", &domain.SystemAction{
				Type: domain.ActionSimulateEvent,
				Name: name,
			})
		})
	}
	return reply.Clone(), true
}

// ActionKind names a single-message mutation.
type ActionKind string

const (
	ActionReact  ActionKind = "react"
	ActionPin    ActionKind = "pin"
	ActionEdit   ActionKind = "edit"
	ActionDelete ActionKind = "delete"
)

type ActionPayload struct {
	MessageID string
	Emoji     string
	// UserID defaults to the store's own sender.
	UserID  string
	Content string
}

// HandleMessageAction mutates one message of the active thread in place and
// persists the thread.
func (s *Store) HandleMessageAction(_ context.Context, kind ActionKind, p ActionPayload) error {
	s.mu.Lock()
	threadID := s.activeID
	msgs := s.cache[threadID]
	i := slices.IndexFunc(msgs, func(m domain.Message) bool { return m.ID == p.MessageID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %s: %w", kind, p.MessageID, domain.ErrMessageNotFound)
	}

	msgs = slices.Clone(msgs)
	evType := EventMessageUpdated
	switch kind {
	case ActionReact:
		user := p.UserID
		if user == "" {
			user = s.me.ID
		}
		msgs[i] = msgs[i].Clone()
		msgs[i].ToggleReaction(p.Emoji, user)
	case ActionPin:
		msgs[i].Pinned = !msgs[i].Pinned
	case ActionEdit:
		msgs[i].Content = p.Content
		msgs[i].Edited = true
	case ActionDelete:
		evType = EventMessageDeleted
	default:
		s.mu.Unlock()
		return fmt.Errorf("message action %q: %w", kind, domain.ErrUnknownAction)
	}

	changed := msgs[i].Clone()
	if kind == ActionDelete {
		msgs = slices.Delete(msgs, i, i+1)
	}
	s.cache[threadID] = msgs
	if threadID != "" {
		s.persistLocked(threadID)
	}
	s.mu.Unlock()

	s.emit(Event{Type: evType, ThreadID: threadID, Message: changed})
	return nil
}

// ActivateVertical appends the vertical's pre-built opening message to the
// active thread without running the synthesizer.
func (s *Store) ActivateVertical(ctx context.Context, id string) (domain.Message, error) {
	msg, err := s.remote.SimulateChat(ctx, id)
	if err != nil {
		return domain.Message{}, fmt.Errorf("activate vertical %s: %w", id, err)
	}

	s.mu.Lock()
	threadID := s.ensureThreadLocked()
	s.cache[threadID] = append(s.cache[threadID], msg)
	s.persistLocked(threadID)
	s.mu.Unlock()

	s.emit(Event{Type: EventMessageAdded, ThreadID: threadID, Message: msg.Clone()})
	return msg.Clone(), nil
}

// Seed asks the server to write mock history and reloads the thread list.
func (s *Store) Seed(ctx context.Context) error {
	if err := s.remote.Seed(ctx); err != nil {
		return err
	}
	return s.RefreshThreads(ctx)
}

func (s *Store) RefreshThreads(ctx context.Context) error {
	threads, err := s.remote.ListThreads(ctx)
	if err != nil {
		return fmt.Errorf("refresh threads: %w", err)
	}
	s.mu.Lock()
	s.setThreadsLocked(threads)
	s.mu.Unlock()
	s.emit(Event{Type: EventThreadsUpdated})
	return nil
}

// persistLocked enqueues a save of the thread's current messages. Jobs are
// enqueued under the lock so saves leave in the same order as mutations; the
// enqueue itself never waits on the remote.
func (s *Store) persistLocked(threadID string) {
	if s.closed {
		return
	}
	msgs := domain.CloneMessages(s.cache[threadID])

	var title string
	if !s.known[threadID] {
		s.known[threadID] = true
		title = firstUserTitle(msgs)
		s.threads = append([]domain.ThreadSummary{{ID: threadID, Title: title}}, s.threads...)
	}
	if i := slices.IndexFunc(s.threads, func(t domain.ThreadSummary) bool { return t.ID == threadID }); i >= 0 {
		s.threads[i].MessageCount = len(msgs)
		s.threads[i].UpdatedAt = s.now()
	}

	s.queue.push(saveJob{threadID: threadID, title: title, messages: msgs})
}

func firstUserTitle(msgs []domain.Message) string {
	for _, m := range msgs {
		if m.Role == domain.RoleUser && m.Content != "" {
			return domain.TitleFrom(m.Content)
		}
	}
	return ""
}

func (s *Store) persistLoop() {
	defer s.wg.Done()
	for {
		job, ok := s.queue.pop()
		if !ok {
			return
		}
		if job.done != nil {
			close(job.done)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.SessionRequestTimeout)
		err := s.remote.SaveThread(ctx, job.threadID, job.messages, job.title)
		cancel()
		if err != nil {
			metrics.PersistFailures.Inc()
			slog.Error("failed to persist thread", "error", err, "thread_id", job.threadID)
		}
	}
}

// Flush waits until every save enqueued before the call has been attempted.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.queue.push(saveJob{done: done}) {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels pending simulations for this store's threads, drains the
// persistence queue and stops the worker.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ids := make([]string, 0, len(s.cache))
	for id := range s.cache {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	s.queue.close()

	if s.scheduler != nil {
		for _, id := range ids {
			s.scheduler.Cancel(id)
		}
	}
	s.wg.Wait()
}
