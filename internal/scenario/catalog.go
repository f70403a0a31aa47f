package scenario

import (
	"embed"
	"fmt"
	"path"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// catalogOrder fixes concatenation order. Ties between equally long keywords
// resolve to the file listed first.
var catalogOrder = []string{
	"food.yaml",
	"mobility.yaml",
	"civic.yaml",
	"services.yaml",
	"leisure.yaml",
}

type catalogFile struct {
	Category string  `yaml:"category"`
	Entries  []Entry `yaml:"entries"`
}

// LoadCatalog parses the embedded catalogs in order and validates the result.
func LoadCatalog() (*Registry, error) {
	var entries []Entry
	for _, name := range catalogOrder {
		data, err := catalogFS.ReadFile(path.Join("catalog", name))
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", name, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", name, err)
		}
		for _, e := range f.Entries {
			e.Category = f.Category
			entries = append(entries, e)
		}
	}

	reg, err := NewRegistry(entries)
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return reg, nil
}

// Default returns the process-wide registry, loaded once.
var Default = sync.OnceValues(LoadCatalog)
