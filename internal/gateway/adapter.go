// Package gateway enriches replies with live data from the aggregation
// gateway. Every failure degrades to "no match".
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/metrics"
)

type Adapter struct {
	client    *Client
	onFailure func(Result)
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// OnFailure registers fn to be called with every failed gateway result.
func (a *Adapter) OnFailure(fn func(Result)) {
	a.onFailure = fn
}

func (a *Adapter) Available() bool {
	return a != nil && a.client.Configured()
}

// Fetch classifies text and performs the single remote call for its domain.
func (a *Adapter) Fetch(ctx context.Context, text string) (Result, bool) {
	d := Classify(text)
	if d == DomainNone {
		return Result{}, false
	}
	endpoint, params := Route(d, text)

	start := time.Now()
	env := a.client.Get(ctx, endpoint, params)
	metrics.GatewayLatency.WithLabelValues(string(d)).Observe(time.Since(start).Seconds())

	return resultFrom(d, endpoint, env), true
}

// Enrich returns a response shaped from live data, or false when the gateway
// is unavailable, the text has no domain, the call fails or the payload is empty.
func (a *Adapter) Enrich(ctx context.Context, text string) (domain.Response, bool) {
	if !a.Available() {
		return domain.Response{}, false
	}

	res, ok := a.Fetch(ctx, text)
	if !ok {
		return domain.Response{}, false
	}
	if !res.OK() {
		metrics.GatewayRequests.WithLabelValues(string(res.Domain), res.Failure().Code).Inc()
		slog.Warn("gateway enrichment failed",
			"domain", res.Domain,
			"endpoint", res.Endpoint,
			"code", res.Failure().Code,
			"message", res.Failure().Message,
		)
		if a.onFailure != nil {
			a.onFailure(res)
		}
		return domain.Response{}, false
	}

	resp, ok := shape(res)
	outcome := "ok"
	if !ok {
		outcome = "empty"
	}
	metrics.GatewayRequests.WithLabelValues(string(res.Domain), outcome).Inc()
	return resp, ok
}
