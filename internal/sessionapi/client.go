package sessionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/jsonx"
)

// Client talks to the remote session API. Requests carry the session token
// when one is set, otherwise the public anonymous key.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	now        func() time.Time

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// SetToken switches the client to an authenticated session; an empty token
// reverts to the anonymous key.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" {
		return c.token
	}
	return c.anonKey
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.credential())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, errNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return data, nil
}

var errNotFound = errors.New("not found")

func (c *Client) ListThreads(ctx context.Context) ([]domain.ThreadSummary, error) {
	data, err := c.do(ctx, http.MethodGet, "/threads", nil)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return jsonx.List[domain.ThreadSummary](data, "threads", "data"), nil
}

func (c *Client) GetThread(ctx context.Context, id string) ([]domain.Message, error) {
	data, err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(id), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get thread %s: %w", id, domain.ErrThreadNotFound)
		}
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}
	return decodeMessages(data, c.now()), nil
}

// SaveThread replaces the thread's full message list. title is only sent on
// the first save of a thread.
func (c *Client) SaveThread(ctx context.Context, id string, messages []domain.Message, title string) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	_, err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(id), saveRequest{Messages: messages, Title: title})
	if err != nil {
		return fmt.Errorf("save thread %s: %w", id, err)
	}
	return nil
}

func (c *Client) Seed(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/debug/seed", nil); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// SimulateChat fetches a pre-built assistant message for a vertical.
func (c *Client) SimulateChat(ctx context.Context, verticalID string) (domain.Message, error) {
	data, err := c.do(ctx, http.MethodPost, "/simulation/chat", simulateRequest{VerticalID: verticalID})
	if err != nil {
		if isNotFound(err) {
			return domain.Message{}, fmt.Errorf("simulate chat %s: %w", verticalID, domain.ErrVerticalNotFound)
		}
		return domain.Message{}, fmt.Errorf("simulate chat %s: %w", verticalID, err)
	}
	msg, ok := decodeMessage(data, c.now())
	if !ok {
		return domain.Message{}, fmt.Errorf("simulate chat %s: empty message", verticalID)
	}
	return msg, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
