// Package vertical holds the pre-built assistant messages that open a
// vertical (dining, mobility, civic, social).
package vertical

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/citycopilot/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed verticals.yaml
var verticalsYAML []byte

type Vertical struct {
	ID        string            `yaml:"id"`
	Content   string            `yaml:"content"`
	Mode      domain.Mode       `yaml:"mode"`
	Artifacts []domain.Artifact `yaml:"artifacts"`
}

type Catalog struct {
	byID map[string]Vertical
	ids  []string
}

func Load() (*Catalog, error) {
	var list []Vertical
	if err := yaml.Unmarshal(verticalsYAML, &list); err != nil {
		return nil, fmt.Errorf("parse verticals: %w", err)
	}
	c := &Catalog{byID: make(map[string]Vertical, len(list))}
	for _, v := range list {
		if v.ID == "" {
			return nil, fmt.Errorf("vertical without id: %w", domain.ErrInvalidEntry)
		}
		if _, dup := c.byID[v.ID]; dup {
			return nil, fmt.Errorf("duplicate vertical %q", v.ID)
		}
		for _, a := range v.Artifacts {
			if !a.Type.Valid() {
				return nil, fmt.Errorf("vertical %q: artifact type %q: %w", v.ID, a.Type, domain.ErrInvalidEntry)
			}
		}
		c.byID[v.ID] = v
		c.ids = append(c.ids, v.ID)
	}
	return c, nil
}

func (c *Catalog) IDs() []string {
	return c.ids
}

// Message builds a fresh assistant message for the vertical.
func (c *Catalog) Message(id string, now time.Time) (domain.Message, error) {
	v, ok := c.byID[id]
	if !ok {
		return domain.Message{}, domain.ErrVerticalNotFound
	}
	mode := v.Mode
	if mode == "" {
		mode = domain.ModeSuggest
	}
	return domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   v.Content,
		Timestamp: now,
		Artifacts: v.Artifacts,
		Mode:      mode,
	}, nil
}
