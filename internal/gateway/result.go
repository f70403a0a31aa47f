package gateway

import "encoding/json"

// Result is either a successful payload from a domain endpoint or a failure
// reason, never both.
type Result struct {
	Domain   Domain
	Endpoint string

	data     json.RawMessage
	total    int
	hasTotal bool
	failure  *EnvelopeError
}

func resultFrom(d Domain, endpoint string, env Envelope) Result {
	r := Result{Domain: d, Endpoint: endpoint}
	if !env.Success {
		r.failure = env.Error
		if r.failure == nil {
			r.failure = &EnvelopeError{Code: CodeUnknown}
		}
		return r
	}
	r.data = env.Data
	r.total, r.hasTotal = env.Total()
	return r
}

func (r Result) OK() bool {
	return r.failure == nil
}

// Data is nil for failed results.
func (r Result) Data() json.RawMessage {
	if !r.OK() {
		return nil
	}
	return r.data
}

// Total prefers the gateway's meta.total and falls back to fallback.
func (r Result) Total(fallback int) int {
	if r.hasTotal {
		return r.total
	}
	return fallback
}

// Failure is nil for successful results.
func (r Result) Failure() *EnvelopeError {
	return r.failure
}
