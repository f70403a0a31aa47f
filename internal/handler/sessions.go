package handler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/middleware"
	"github.com/set-night/citycopilot/internal/session"
	tg "github.com/set-night/citycopilot/internal/telegram"
)

type chatSession struct {
	store       *session.Store
	scheduler   *session.Scheduler
	unsubscribe func()
	lastSeen    time.Time

	mu sync.Mutex
	// links maps Telegram message ids of user texts to store message ids so
	// edits can be applied.
	links map[int]string
}

func (c *chatSession) link(tgMessageID int, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[tgMessageID] = messageID
}

func (c *chatSession) linked(tgMessageID int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.links[tgMessageID]
	return id, ok
}

func (c *chatSession) close() {
	c.unsubscribe()
	c.scheduler.Stop()
	c.store.Close()
}

// Sessions lazily creates one session store per chat and evicts stores that
// have been idle too long. It implements middleware.StoreProvider.
type Sessions struct {
	responder session.Responder
	remote    session.Remote
	minDelay  time.Duration
	maxDelay  time.Duration
	now       func() time.Time

	mu    sync.Mutex
	chats map[int64]*chatSession
	// resume holds the active thread of evicted chats so they pick up where
	// they left off.
	resume map[int64]string
}

var _ middleware.StoreProvider = (*Sessions)(nil)

func NewSessions(responder session.Responder, remote session.Remote, minDelay, maxDelay time.Duration) *Sessions {
	return &Sessions{
		responder: responder,
		remote:    remote,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		now:       time.Now,
		chats:     make(map[int64]*chatSession),
		resume:    make(map[int64]string),
	}
}

func (s *Sessions) Store(ctx context.Context, b *bot.Bot, chatID int64, from *models.User) *session.Store {
	s.mu.Lock()
	if cs, ok := s.chats[chatID]; ok {
		cs.lastSeen = s.now()
		s.mu.Unlock()
		return cs.store
	}

	me := domain.Sender{ID: strconv.FormatInt(chatID, 10), Name: config.BotSenderName}
	if from != nil {
		me.ID = strconv.FormatInt(from.ID, 10)
		if from.FirstName != "" {
			me.Name = from.FirstName
		}
	}
	sched := session.NewScheduler(s.minDelay, s.maxDelay)
	store := session.NewStore(session.Options{
		Responder: s.responder,
		Remote:    s.remote,
		Scheduler: sched,
		Me:        me,
	})
	cs := &chatSession{store: store, scheduler: sched, lastSeen: s.now(), links: make(map[int]string)}
	cs.unsubscribe = store.Subscribe(pushSimulated(b, chatID, store))
	s.chats[chatID] = cs
	threadID := s.resume[chatID]
	delete(s.resume, chatID)
	s.mu.Unlock()

	if err := store.Init(ctx, threadID); err != nil {
		slog.Warn("failed to load thread list", "error", err, "chat_id", chatID, "thread_id", threadID)
	}
	return store
}

// Evict closes the stores of chats not seen for idle. Chats with a turn in
// flight or a pending simulation are kept.
func (s *Sessions) Evict(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	var evicted []*chatSession
	s.mu.Lock()
	for chatID, cs := range s.chats {
		if cs.lastSeen.After(cutoff) {
			continue
		}
		snap := cs.store.Snapshot()
		if snap.Processing || cs.scheduler.Len() > 0 {
			continue
		}
		if snap.ThreadID != "" {
			s.resume[chatID] = snap.ThreadID
		}
		delete(s.chats, chatID)
		evicted = append(evicted, cs)
	}
	s.mu.Unlock()

	for _, cs := range evicted {
		cs.close()
	}
	return len(evicted)
}

// RunEviction calls Evict every interval until ctx is done.
func (s *Sessions) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(idle); n > 0 {
				slog.Info("evicted idle chat sessions", "count", n)
			}
		}
	}
}

func (s *Sessions) chat(chatID int64) *chatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats[chatID]
}

// Close stops every chat's simulations and drains its persistence queue.
func (s *Sessions) Close() {
	s.mu.Lock()
	chats := s.chats
	s.chats = make(map[int64]*chatSession)
	s.mu.Unlock()

	for _, cs := range chats {
		cs.close()
	}
}

// pushSimulated delivers simulated follow-ups to the chat as they happen.
func pushSimulated(b *bot.Bot, chatID int64, store *session.Store) func(session.Event) {
	return func(ev session.Event) {
		if ev.Type != session.EventMessageAdded || !ev.Simulated {
			return
		}
		text := tg.RenderMessage(ev.Message)
		if store.Snapshot().ThreadID != ev.ThreadID {
			text = "🔔 _Update in another thread_\n\n" + text
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.SessionRequestTimeout)
		defer cancel()
		if _, err := tg.SendLongMessage(ctx, b, chatID, text, tg.MessageKeyboard(ev.Message)); err != nil {
			slog.Error("failed to push simulated update", "error", err, "chat_id", chatID, "thread_id", ev.ThreadID)
		}
	}
}

func (h *Handler) handleThreads(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}

	if err := store.RefreshThreads(ctx); err != nil {
		slog.Warn("refresh threads", "error", err)
	}
	h.sendThreadsPage(ctx, b, update.Message.Chat.ID, store, 0, 0)
}

// sendThreadsPage renders one page of the thread list. A non-zero messageID
// edits that message in place.
func (h *Handler) sendThreadsPage(ctx context.Context, b *bot.Bot, chatID int64, store *session.Store, page int, messageID int) {
	snap := store.Snapshot()
	total := len(snap.Threads)

	totalPages := int(math.Ceil(float64(total) / float64(config.ThreadsPerPage)))
	if totalPages == 0 {
		totalPages = 1
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}

	var rows [][]models.InlineKeyboardButton
	start := page * config.ThreadsPerPage
	end := min(start+config.ThreadsPerPage, total)
	for _, t := range snap.Threads[start:end] {
		label := t.Title
		if label == "" {
			label = "Untitled conversation"
		}
		if t.MessageCount > 0 {
			label = fmt.Sprintf("%s (%d)", label, t.MessageCount)
		}
		if t.ID == snap.ThreadID {
			label += " ✅"
		}
		data := tg.CallbackThread + t.ID
		if len(data) > config.MaxCallbackDataLen {
			continue
		}
		rows = append(rows, tg.ButtonRow(tg.InlineButton(label, data)))
	}
	rows = append(rows, tg.ButtonRow(tg.InlineButton("➕ New thread", tg.CallbackNewThread)))
	if totalPages > 1 {
		rows = append(rows, tg.PaginationRow(page, totalPages, tg.CallbackThreadsPage))
	}

	text := fmt.Sprintf("🗂 *Threads* (%d)", total)
	if total == 0 {
		text += "\n\nNo saved conversations yet. Send a message to start one."
	}
	keyboard := tg.InlineKeyboard(rows...)

	if messageID != 0 {
		if err := tg.EditMessage(ctx, b, chatID, messageID, text, keyboard); err != nil {
			slog.Warn("edit threads page", "error", err)
		}
		return
	}
	if _, err := tg.SendLongMessage(ctx, b, chatID, text, keyboard); err != nil {
		slog.Error("send threads page", "error", err)
	}
}

func (h *Handler) handleThreadsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}
	page, _ := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackThreadsPage+"_"))
	chatID, messageID := callbackTarget(update)
	h.sendThreadsPage(ctx, b, chatID, store, page, messageID)
}

func (h *Handler) handleSwitchThread(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	store := middleware.GetStore(ctx)
	if store == nil {
		answer(ctx, b, update, "")
		return
	}

	threadID := strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackThread)
	if err := store.LoadThread(ctx, threadID); err != nil {
		slog.Error("load thread", "error", err, "thread_id", threadID)
		h.tgLogger.LogError(err, "load thread "+threadID)
		answer(ctx, b, update, "❌ Could not load this thread. Try again later.")
		return
	}
	answer(ctx, b, update, "")

	chatID, messageID := callbackTarget(update)
	h.sendThreadsPage(ctx, b, chatID, store, 0, messageID)
	h.sendRecent(ctx, b, chatID, store)
}

func (h *Handler) handleNewThread(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	store := middleware.GetStore(ctx)
	if store == nil {
		return
	}
	chatID, _ := callbackTarget(update)
	h.startFresh(ctx, b, chatID, store, "")
}

// sendRecent replays the tail of the active thread.
func (h *Handler) sendRecent(ctx context.Context, b *bot.Bot, chatID int64, store *session.Store) {
	msgs := store.Snapshot().Messages
	if len(msgs) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "This thread is empty. Send a message to continue.",
		})
		return
	}
	if len(msgs) > config.RecentMessagesOnSwitch {
		msgs = msgs[len(msgs)-config.RecentMessagesOnSwitch:]
	}
	for _, m := range msgs {
		text := tg.RenderMessage(m)
		if m.Role == domain.RoleUser {
			text = "🗣 " + text
		}
		if _, err := tg.SendLongMessage(ctx, b, chatID, text, tg.MessageKeyboard(m)); err != nil {
			slog.Error("replay message", "error", err, "chat_id", chatID)
			return
		}
	}
}
