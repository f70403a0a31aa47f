// Package synth turns one utterance or system action into a single
// normalized response.
package synth

import (
	"context"
	"log/slog"
	"time"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/metrics"
)

type FlowMatcher interface {
	Match(text string, action *domain.SystemAction) (domain.Response, bool)
}

type RegistryMatcher interface {
	Match(text string) (domain.Response, bool)
}

type Enricher interface {
	Available() bool
	Enrich(ctx context.Context, text string) (domain.Response, bool)
}

const (
	tierSystem   = "system"
	tierFlow     = "flow"
	tierRegistry = "registry"
	tierGateway  = "gateway"
	tierFallback = "fallback"
)

type Synthesizer struct {
	flows          FlowMatcher
	registry       RegistryMatcher
	gateway        Enricher
	gatewayTimeout time.Duration
}

// New wires the tiers. gateway may be nil when enrichment is not configured.
func New(flows FlowMatcher, registry RegistryMatcher, gateway Enricher, gatewayTimeout time.Duration) *Synthesizer {
	return &Synthesizer{
		flows:          flows,
		registry:       registry,
		gateway:        gateway,
		gatewayTimeout: gatewayTimeout,
	}
}

// Respond runs the tiers in fixed order and returns the first match. It
// always returns a usable response.
func (s *Synthesizer) Respond(ctx context.Context, text string, action *domain.SystemAction) domain.Response {
	resp, tier := s.respond(ctx, text, action)
	metrics.Responses.WithLabelValues(tier).Inc()
	slog.Debug("response synthesized", "tier", tier, "mode", resp.Mode, "artifacts", len(resp.Artifacts))
	return resp
}

func (s *Synthesizer) respond(ctx context.Context, text string, action *domain.SystemAction) (domain.Response, string) {
	if resp, ok := systemResponse(action); ok {
		return resp, tierSystem
	}
	if resp, ok := s.flows.Match(text, action); ok {
		return resp, tierFlow
	}
	if resp, ok := s.registry.Match(text); ok {
		return resp, tierRegistry
	}
	if s.gateway != nil && s.gateway.Available() {
		gctx := ctx
		if s.gatewayTimeout > 0 {
			var cancel context.CancelFunc
			gctx, cancel = context.WithTimeout(ctx, s.gatewayTimeout)
			defer cancel()
		}
		if resp, ok := s.gateway.Enrich(gctx, text); ok {
			return resp, tierGateway
		}
	}
	return Fallback(), tierFallback
}

var fallbackChips = []string{
	"Find coffee shops nearby",
	"Book a ride to the airport",
	"Report a pothole",
	"Pay my water bill",
}

// Fallback is the fixed reply for input nothing recognized.
func Fallback() domain.Response {
	return domain.Response{
		Content: "Sorry, I couldn't find anything for that yet. Here are a few things I can help with.",
		Mode:    domain.ModeSuggest,
		Artifacts: []domain.Artifact{
			domain.Chips(fallbackChips...),
		},
	}
}
