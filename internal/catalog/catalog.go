// Package catalog serves the prompt suggestions and showcase examples shown
// next to the creation screen.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"photoanimator/internal/domain"
)

//go:embed catalog.yaml
var embedded []byte

const fallbackLocale = "ru"

// Example is a showcase entry.
type Example struct {
	ID       int          `yaml:"id" json:"id"`
	Title    string       `yaml:"title" json:"title"`
	Style    domain.Style `yaml:"style" json:"style"`
	Duration int          `yaml:"duration" json:"duration"`
}

// Entries is the content of one locale.
type Entries struct {
	Suggestions []string  `yaml:"suggestions" json:"suggestions"`
	Examples    []Example `yaml:"examples" json:"examples"`
}

// Catalog holds localised entries keyed by base language.
type Catalog struct {
	Version string             `yaml:"version"`
	Locales map[string]Entries `yaml:"locales"`
}

// Default returns the embedded catalogue.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads a catalogue from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Locales) == 0 {
		return errors.New("catalog: no locales")
	}
	if _, ok := c.Locales[fallbackLocale]; !ok {
		return fmt.Errorf("catalog: fallback locale %q missing", fallbackLocale)
	}
	for locale, entries := range c.Locales {
		for i, s := range entries.Suggestions {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("catalog: %s suggestion %d is blank", locale, i)
			}
		}
		for _, ex := range entries.Examples {
			if !ex.Style.Valid() {
				return fmt.Errorf("catalog: %s example %d has unknown style %q", locale, ex.ID, ex.Style)
			}
			if ex.Duration < domain.MinDuration || ex.Duration > domain.MaxDuration {
				return fmt.Errorf("catalog: %s example %d duration %d out of range", locale, ex.ID, ex.Duration)
			}
		}
	}
	return nil
}

// For returns the entries of locale, falling back to Russian.
func (c *Catalog) For(locale string) Entries {
	if entries, ok := c.Locales[strings.ToLower(locale)]; ok {
		return entries
	}
	return c.Locales[fallbackLocale]
}

func (c *Catalog) SuggestionsFor(locale string) []string {
	return append([]string(nil), c.For(locale).Suggestions...)
}

func (c *Catalog) ExamplesFor(locale string) []Example {
	return append([]Example(nil), c.For(locale).Examples...)
}
