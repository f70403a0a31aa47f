package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/jsonx"
)

const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeUnknown      = "UNKNOWN"
)

// Client is the REST transport for the aggregation gateway. It never returns
// transport errors; every failure is folded into a failure Envelope.
type Client struct {
	gatewayURL string
	baseURL    string
	apiKey     string
	token      string
	httpClient *http.Client
}

func NewClient(gatewayURL, apiKey, token string, timeout time.Duration) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		baseURL:    strings.TrimRight(gatewayURL, "/") + config.GatewayBasePath,
		apiKey:     apiKey,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether both a base URL and an API key were supplied.
func (c *Client) Configured() bool {
	return c != nil && c.gatewayURL != "" && c.apiKey != ""
}

type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
	Meta    json.RawMessage `json:"meta,omitempty"`
}

// Total reads meta.total when the gateway supplied a numeric one.
func (e Envelope) Total() (int, bool) {
	total, ok := jsonx.Object(e.Meta)["total"].(float64)
	if !ok || total < 0 {
		return 0, false
	}
	return int(total), true
}

func failure(code, message string) Envelope {
	return Envelope{Success: false, Error: &EnvelopeError{Code: code, Message: message}}
}

// Get issues exactly one GET request against path.
func (c *Client) Get(ctx context.Context, path string, params url.Values) Envelope {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return failure(CodeNetworkError, fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure(CodeNetworkError, fmt.Sprintf("gateway request: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(CodeNetworkError, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		env := failure(fmt.Sprintf("HTTP_%d", resp.StatusCode), http.StatusText(resp.StatusCode))
		// Keep the gateway's own message when the error body is an envelope.
		var remote Envelope
		if json.Unmarshal(body, &remote) == nil && remote.Error != nil && remote.Error.Message != "" {
			env.Error.Message = remote.Error.Message
		}
		return env
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return failure(CodeNetworkError, fmt.Sprintf("parse response: %v", err))
	}
	if !env.Success && env.Error == nil {
		env.Error = &EnvelopeError{Code: CodeUnknown, Message: "gateway reported failure"}
	}
	return env
}

// Health pings /health.
func (c *Client) Health(ctx context.Context) bool {
	return c.Get(ctx, "/health", nil).Success
}
