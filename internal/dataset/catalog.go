package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSeed     uint64 = 42
	defaultPerGroup        = 3
)

// Catalog lists the dimension values the synthetic generator draws from.
type Catalog struct {
	Regions    []string `yaml:"regions"`
	Categories []string `yaml:"categories"`
	Products   []string `yaml:"products"`
	PerGroup   int      `yaml:"per_group"`
	Seed       *uint64  `yaml:"seed,omitempty"`
}

// DefaultCatalog is the catalog used when no catalog file is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		Regions:    []string{"North", "South", "East", "West"},
		Categories: []string{"Electronics", "Clothing", "Food", "Books"},
		Products: []string{
			"Laptop", "Phone", "Tablet", "Shirt", "Pants",
			"Dress", "Pizza", "Burger", "Novel", "Textbook",
		},
		PerGroup: defaultPerGroup,
	}
}

// LoadCatalog reads a YAML catalog. Missing per_group falls back to the
// default of three products per region and category.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if cat.PerGroup == 0 {
		cat.PerGroup = defaultPerGroup
	}
	if err := cat.Validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

func (c Catalog) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("catalog: at least one region is required")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("catalog: at least one category is required")
	}
	if len(c.Products) == 0 {
		return fmt.Errorf("catalog: at least one product is required")
	}
	if c.PerGroup < 1 {
		return fmt.Errorf("catalog: per_group must be positive, got %d", c.PerGroup)
	}
	for _, list := range [][]string{c.Regions, c.Categories, c.Products} {
		seen := make(map[string]struct{}, len(list))
		for _, v := range list {
			if v == "" {
				return fmt.Errorf("catalog: empty name")
			}
			if _, dup := seen[v]; dup {
				return fmt.Errorf("catalog: duplicate name %q", v)
			}
			seen[v] = struct{}{}
		}
	}
	return nil
}

// SeedOr returns the catalog's own seed when it sets one.
func (c Catalog) SeedOr(fallback uint64) uint64 {
	if c.Seed != nil {
		return *c.Seed
	}
	return fallback
}
