package core

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed features.toml
var defaultCatalog string

// Catalog is the decoded feature catalog file.
type Catalog struct {
	Features []Feature `toml:"feature"`
}

// DecodeCatalog parses a TOML catalog. Unknown keys are rejected so typos in
// the catalog surface at startup instead of as silently missing filters.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("decode catalog: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalog reads the catalog at path, or the built-in catalog when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DecodeCatalog(strings.NewReader(defaultCatalog))
	}
	var c Catalog
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load catalog %s: unknown key %s", path, undecoded[0])
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every feature and rejects duplicate keys.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		if seen[f.Key] {
			return fmt.Errorf("catalog: duplicate feature %q", f.Key)
		}
		seen[f.Key] = true
		if err := f.Validate(); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	return nil
}

// RegisterAll registers every feature of the catalog.
func (c *Catalog) RegisterAll() {
	for _, f := range c.Features {
		Register(f)
	}
}
