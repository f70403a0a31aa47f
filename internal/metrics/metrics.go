package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Responses counts synthesizer results by the tier that produced them.
	Responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citycopilot_responses_total",
		Help: "Synthesized responses by matching tier.",
	}, []string{"tier"})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citycopilot_gateway_requests_total",
		Help: "Gateway enrichment calls by domain and outcome.",
	}, []string{"domain", "outcome"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "citycopilot_gateway_request_seconds",
		Help:    "Gateway request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"domain"})

	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citycopilot_persist_failures_total",
		Help: "Thread saves that failed and were dropped.",
	})

	SimulationsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citycopilot_simulations_fired_total",
		Help: "Simulated follow-up events delivered.",
	}, []string{"event"})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citycopilot_session_api_requests_total",
		Help: "Session API requests by route and status code.",
	}, []string{"route", "code"})
)
