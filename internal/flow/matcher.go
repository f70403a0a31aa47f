// Package flow recognizes multi-turn dialogue continuations (bookings,
// invitations, votes, agent negotiation) that must short-circuit generic
// scenario matching.
package flow

import (
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/set-night/citycopilot/internal/domain"
)

// Handler is one flow step. Pattern runs against the trimmed input and is
// case-insensitive; Respond receives the submatches.
type Handler struct {
	Name    string
	Pattern *regexp.Regexp
	Respond func(match []string) domain.Response
}

// Matcher runs handlers in priority order. Every handler is anchored on its
// own leading phrase so no literal input is claimed by two of them.
type Matcher struct {
	handlers []Handler
}

func NewMatcher(handlers ...Handler) *Matcher {
	return &Matcher{handlers: handlers}
}

// New returns the matcher with the built-in flows in priority order.
func New() *Matcher {
	return NewMatcher(
		tableBooking,
		rideConfirm,
		rideQuote,
		inviteDraft,
		inviteSend,
		pollStart,
		pollVote,
		agentSync,
	)
}

// Match returns the response of the first handler whose pattern matches.
// System actions the synthesizer did not recognize arrive here with their
// text; the action itself does not select a flow.
func (m *Matcher) Match(text string, _ *domain.SystemAction) (domain.Response, bool) {
	input := strings.TrimSpace(text)
	if input == "" {
		return domain.Response{}, false
	}
	for _, h := range m.handlers {
		if match := h.Pattern.FindStringSubmatch(input); match != nil {
			return h.Respond(match), true
		}
	}
	return domain.Response{}, false
}

// Candidates lists every handler that would accept text, in priority order.
func (m *Matcher) Candidates(text string) []string {
	input := strings.TrimSpace(text)
	var names []string
	for _, h := range m.handlers {
		if h.Pattern.MatchString(input) {
			names = append(names, h.Name)
		}
	}
	return names
}

func (m *Matcher) Names() []string {
	names := make([]string, len(m.handlers))
	for i, h := range m.handlers {
		names[i] = h.Name
	}
	return names
}

// clean trims a captured phrase and drops trailing punctuation.
func clean(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".!? ")
}

// titleCase upper-cases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// stable derives a small deterministic number from s so repeated inputs
// produce identical references and quotes.
func stable(s string, mod uint32) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(s)))
	return h.Sum32() % mod
}
