// Package scenario matches free text against the static catalog of canned
// city-service scenarios.
package scenario

import (
	"fmt"
	"strings"

	"github.com/set-night/citycopilot/internal/domain"
)

type Entry struct {
	Category  string          `yaml:"-"`
	Keywords  []string        `yaml:"keywords"`
	Response  string          `yaml:"response"`
	Artifact  domain.Artifact `yaml:"artifact"`
	NextSteps []string        `yaml:"nextSteps"`
	Mode      domain.Mode     `yaml:"mode"`
}

// Registry is an immutable, validated scenario table.
type Registry struct {
	entries []Entry
}

// NewRegistry validates entries and normalizes their keywords. Catalog order
// is preserved because it breaks ties between equally long keywords.
func NewRegistry(entries []Entry) (*Registry, error) {
	seen := make(map[string]int, len(entries)*3)
	out := make([]Entry, 0, len(entries))

	for i, e := range entries {
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("entry %d (%s): %w: no keywords", i, e.Category, domain.ErrInvalidEntry)
		}
		if strings.TrimSpace(e.Response) == "" {
			return nil, fmt.Errorf("entry %d (%s): %w: empty response", i, e.Category, domain.ErrInvalidEntry)
		}
		if !e.Artifact.Type.Valid() {
			return nil, fmt.Errorf("entry %d (%s): %w: artifact type %q", i, e.Category, domain.ErrInvalidEntry, e.Artifact.Type)
		}
		if e.Mode == "" {
			e.Mode = domain.ModeSuggest
		}

		keywords := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("entry %d (%s): %w: blank keyword", i, e.Category, domain.ErrInvalidEntry)
			}
			if prev, ok := seen[kw]; ok {
				return nil, fmt.Errorf("keyword %q in entries %d and %d: %w", kw, prev, i, domain.ErrDuplicateKeyword)
			}
			seen[kw] = i
			keywords = append(keywords, kw)
		}
		e.Keywords = keywords
		out = append(out, e)
	}

	return &Registry{entries: out}, nil
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Lookup returns the winning entry for text: the one whose matching keyword
// is longest. On equal length the entry met first in catalog order wins.
func (r *Registry) Lookup(text string) (Entry, bool) {
	input := strings.ToLower(text)

	best := -1
	bestLen := 0
	for i, e := range r.entries {
		for _, kw := range e.Keywords {
			if len(kw) > bestLen && strings.Contains(input, kw) {
				best = i
				bestLen = len(kw)
			}
		}
	}
	if best < 0 {
		return Entry{}, false
	}
	return r.entries[best], true
}

// Match wraps the winning entry into a response with a follow-up chips
// artifact appended.
func (r *Registry) Match(text string) (domain.Response, bool) {
	e, ok := r.Lookup(text)
	if !ok {
		return domain.Response{}, false
	}

	artifacts := []domain.Artifact{e.Artifact}
	if len(e.NextSteps) > 0 {
		artifacts = append(artifacts, domain.Chips(e.NextSteps...))
	}
	return domain.Response{
		Content:   e.Response,
		Mode:      e.Mode,
		Artifacts: artifacts,
	}, true
}
