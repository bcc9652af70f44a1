package classify

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Category maps detected object classes to an event.
type Category struct {
	Event   string   `yaml:"event"`
	Weight  float64  `yaml:"weight"`
	Classes []string `yaml:"classes"`
}

// Catalog holds the event labels and detection categories.
type Catalog struct {
	Events     []string   `yaml:"events"`
	Categories []Category `yaml:"categories"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("classify: built-in catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file. An empty path returns the built-in
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that events are unique and non-empty and that categories
// carry a positive weight and at least one class.
func (c *Catalog) Validate() error {
	if len(c.Events) == 0 {
		return errors.New("catalog has no events")
	}
	seen := make(map[string]bool, len(c.Events))
	for _, e := range c.Events {
		e = strings.TrimSpace(e)
		if e == "" {
			return errors.New("catalog has an empty event")
		}
		if strings.EqualFold(e, UnknownLabel) {
			return fmt.Errorf("event %q is reserved", e)
		}
		if seen[e] {
			return fmt.Errorf("duplicate event %q", e)
		}
		seen[e] = true
	}
	for i, cat := range c.Categories {
		if cat.Event == "" {
			return fmt.Errorf("category %d has no event", i)
		}
		if cat.Weight <= 0 {
			return fmt.Errorf("category %q has non-positive weight %v", cat.Event, cat.Weight)
		}
		if len(cat.Classes) == 0 {
			return fmt.Errorf("category %q has no classes", cat.Event)
		}
	}
	return nil
}
