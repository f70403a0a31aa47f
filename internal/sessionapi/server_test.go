package sessionapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/vertical"
)

type memRepo struct {
	mu      sync.Mutex
	threads map[string]domain.Thread
	order   []string
	saves   int
	seeded  bool
	failAll bool
}

func newMemRepo() *memRepo {
	return &memRepo{threads: make(map[string]domain.Thread)}
}

func (m *memRepo) List(context.Context) ([]domain.ThreadSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errors.New("db down")
	}
	out := make([]domain.ThreadSummary, 0, len(m.order))
	for _, id := range m.order {
		t := m.threads[id]
		out = append(out, domain.ThreadSummary{ID: id, Title: t.Title, MessageCount: len(t.Messages)})
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return domain.CloneMessages(t.Messages), nil
}

func (m *memRepo) Save(_ context.Context, id, title string, messages []domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("db down")
	}
	m.saves++
	t, ok := m.threads[id]
	if !ok {
		t = domain.Thread{ID: id, Title: title}
		m.order = append(m.order, id)
	}
	t.Messages = domain.CloneMessages(messages)
	m.threads[id] = t
	return nil
}

func (m *memRepo) Seed(ctx context.Context) error {
	m.mu.Lock()
	m.seeded = true
	m.mu.Unlock()
	return m.Save(ctx, "thread_seed", "Seeded", []domain.Message{{ID: "s1", Role: domain.RoleUser, Content: "hello"}})
}

func newTestServer(t *testing.T, repo *memRepo, cfg ServerConfig) *httptest.Server {
	t.Helper()
	cat, err := vertical.Load()
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(repo, cat, cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_RequiresBearer(t *testing.T) {
	srv := newTestServer(t, newMemRepo(), ServerConfig{AnonKey: "anon"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic anon", http.StatusUnauthorized},
		{"unknown key", "Bearer nope", http.StatusUnauthorized},
		{"anon key", "Bearer anon", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/threads", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_OpenEndpoints(t *testing.T) {
	srv := newTestServer(t, newMemRepo(), ServerConfig{AnonKey: "anon"})

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestClientServer_RoundTrip(t *testing.T) {
	repo := newMemRepo()
	srv := newTestServer(t, repo, ServerConfig{AnonKey: "anon", Tokens: []string{"user-token"}})
	c := NewClient(srv.URL, "anon", 2*time.Second)
	c.SetToken("user-token")
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	msgs := []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "Find coffee shops nearby", Timestamp: ts},
		{ID: "m2", Role: domain.RoleAssistant, Content: "Here you go", Timestamp: ts.Add(time.Second), Mode: domain.ModeSuggest},
	}
	require.NoError(t, c.SaveThread(ctx, "thread_1", msgs, "Find coffee shops nearby"))
	require.NoError(t, c.SaveThread(ctx, "thread_1", msgs[:1], "ignored on update"))

	threads, err := c.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "Find coffee shops nearby", threads[0].Title)
	assert.Equal(t, 1, threads[0].MessageCount)

	got, err := c.GetThread(ctx, "thread_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
	assert.True(t, got[0].Timestamp.Equal(ts))

	_, err = c.GetThread(ctx, "thread_missing")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}

func TestClient_FallsBackToAnonKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon", time.Second)
	_, err := c.ListThreads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon", auth)

	c.SetToken("tok")
	_, err = c.ListThreads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := newTestServer(t, newMemRepo(), ServerConfig{AnonKey: "anon"})
	c := NewClient(srv.URL, "wrong", time.Second)

	_, err := c.ListThreads(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestClient_DefensiveDecoding(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"bare array", `[{"id":"a","content":"x","timestamp":"2026-01-02T03:04:05Z"}]`, []string{"a"}},
		{"wrapped", `{"messages":[{"id":"b","content":"y","timestamp":"2026-01-02 03:04:05"}]}`, []string{"b"}},
		{"unexpected object", `{"ok":true}`, nil},
		{"bad element skipped", `[{"id":"c","content":"z"}, 42]`, []string{"c"}},
		{"not json", `<html>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewClient(srv.URL, "anon", time.Second).GetThread(context.Background(), "t")
			require.NoError(t, err)
			require.NotNil(t, got)
			var ids []string
			for _, m := range got {
				ids = append(ids, m.ID)
				assert.False(t, m.Timestamp.IsZero())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestServer_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		repo := newMemRepo()
		srv := newTestServer(t, repo, ServerConfig{AnonKey: "anon"})
		err := NewClient(srv.URL, "anon", time.Second).Seed(ctx)
		require.Error(t, err)
		assert.False(t, repo.seeded)
	})

	t.Run("enabled", func(t *testing.T) {
		repo := newMemRepo()
		srv := newTestServer(t, repo, ServerConfig{AnonKey: "anon", DebugSeed: true})
		c := NewClient(srv.URL, "anon", time.Second)
		require.NoError(t, c.Seed(ctx))

		threads, err := c.ListThreads(ctx)
		require.NoError(t, err)
		require.Len(t, threads, 1)
		assert.Equal(t, "thread_seed", threads[0].ID)
	})
}

func TestServer_SimulateChat(t *testing.T) {
	srv := newTestServer(t, newMemRepo(), ServerConfig{AnonKey: "anon"})
	c := NewClient(srv.URL, "anon", time.Second)
	ctx := context.Background()

	msg, err := c.SimulateChat(ctx, "dining")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, msg.Role)
	assert.True(t, strings.HasPrefix(msg.Content, "Welcome to Dining"))
	assert.NotEmpty(t, msg.ID)
	assert.True(t, slices.ContainsFunc(msg.Artifacts, func(a domain.Artifact) bool {
		return a.Type == domain.ArtifactChips
	}))

	_, err = c.SimulateChat(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrVerticalNotFound)
}

func TestServer_RepositoryFailure(t *testing.T) {
	repo := newMemRepo()
	repo.failAll = true
	srv := newTestServer(t, repo, ServerConfig{AnonKey: "anon"})
	c := NewClient(srv.URL, "anon", time.Second)

	_, err := c.ListThreads(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.SaveThread(context.Background(), "t", nil, ""))
}
