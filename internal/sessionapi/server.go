package sessionapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/set-night/citycopilot/internal/domain"
)

// ThreadRepository is the storage the server persists threads into.
type ThreadRepository interface {
	List(ctx context.Context) ([]domain.ThreadSummary, error)
	Get(ctx context.Context, id string) ([]domain.Message, error)
	Save(ctx context.Context, id, title string, messages []domain.Message) error
	Seed(ctx context.Context) error
}

// VerticalSource builds the pre-built assistant message for a vertical.
type VerticalSource interface {
	Message(id string, now time.Time) (domain.Message, error)
}

type ServerConfig struct {
	AnonKey   string
	Tokens    []string
	DebugSeed bool
}

type Server struct {
	repo      ThreadRepository
	verticals VerticalSource
	keys      map[string]struct{}
	debugSeed bool
	now       func() time.Time
}

func NewServer(repo ThreadRepository, verticals VerticalSource, cfg ServerConfig) *Server {
	keys := make(map[string]struct{}, len(cfg.Tokens)+1)
	if cfg.AnonKey != "" {
		keys[cfg.AnonKey] = struct{}{}
	}
	for _, t := range cfg.Tokens {
		if t != "" {
			keys[t] = struct{}{}
		}
	}
	return &Server{
		repo:      repo,
		verticals: verticals,
		keys:      keys,
		debugSeed: cfg.DebugSeed,
		now:       time.Now,
	}
}

// Handler returns the full router: the authenticated API plus /healthz and
// /metrics.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(recoverMiddleware, loggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = jsonWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)
	s.registerThreads(api)
	s.registerSimulation(api)
	return r
}

func (s *Server) registerThreads(r *mux.Router) {
	r.HandleFunc("/threads", s.listThreads).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}", s.getThread).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}", s.saveThread).Methods(http.MethodPost)
}

func (s *Server) registerSimulation(r *mux.Router) {
	r.HandleFunc("/debug/seed", s.seed).Methods(http.MethodPost)
	r.HandleFunc("/simulation/chat", s.simulateChat).Methods(http.MethodPost)
}

func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list threads", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list threads")
		return
	}
	if threads == nil {
		threads = []domain.ThreadSummary{}
	}
	_ = jsonWrite(w, http.StatusOK, map[string]any{"threads": threads})
}

func (s *Server) getThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	messages, err := s.repo.Get(r.Context(), id)
	if errors.Is(err, domain.ErrThreadNotFound) {
		jsonError(w, http.StatusNotFound, "thread not found")
		return
	}
	if err != nil {
		slog.Error("failed to get thread", "error", err, "thread_id", id)
		jsonError(w, http.StatusInternalServerError, "failed to get thread")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	_ = jsonWrite(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) saveThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Messages json.RawMessage `json:"messages"`
		Title    string          `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	messages := decodeMessages(body.Messages, s.now())
	if err := s.repo.Save(r.Context(), id, body.Title, messages); err != nil {
		slog.Error("failed to save thread", "error", err, "thread_id", id)
		jsonError(w, http.StatusInternalServerError, "failed to save thread")
		return
	}
	_ = jsonWrite(w, http.StatusOK, map[string]any{"id": id, "messageCount": len(messages)})
}

func (s *Server) seed(w http.ResponseWriter, r *http.Request) {
	if !s.debugSeed {
		jsonError(w, http.StatusNotFound, domain.ErrSeedDisabled.Error())
		return
	}
	if err := s.repo.Seed(r.Context()); err != nil {
		slog.Error("failed to seed threads", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to seed threads")
		return
	}
	_ = jsonWrite(w, http.StatusOK, map[string]string{"status": "seeded"})
}

func (s *Server) simulateChat(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.VerticalID == "" {
		jsonError(w, http.StatusBadRequest, "verticalId is required")
		return
	}
	msg, err := s.verticals.Message(body.VerticalID, s.now())
	if errors.Is(err, domain.ErrVerticalNotFound) {
		jsonError(w, http.StatusNotFound, "vertical not found")
		return
	}
	if err != nil {
		slog.Error("failed to build vertical message", "error", err, "vertical", body.VerticalID)
		jsonError(w, http.StatusInternalServerError, "failed to build message")
		return
	}
	_ = jsonWrite(w, http.StatusOK, map[string]any{"message": msg})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func jsonWrite(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(v)
}
