package registry

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// registryFile is the on-disk TOML shape of a registry definition.
type registryFile struct {
	Identifier string       `toml:"identifier"`
	Entities   []EntitySpec `toml:"entity"`
	Events     []EventSpec  `toml:"event"`
}

// Parse decodes a TOML registry definition. The resulting registry has an
// empty plugin factory; plugins are registered in code, not in the file.
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	r := NewRegistry(f.Identifier, f.Entities, f.Events, nil)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads and parses a registry definition file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in registry used when no definition file is
// supplied: datasets, charts and jobs identified by URN, related through
// DownstreamOf edges.
func Default() *Registry {
	mk := func(name string) EntitySpec {
		return EntitySpec{
			Name:      name,
			KeyAspect: "urn",
			Aspects: []AspectSpec{
				{Name: "urn", UniqueKey: true, Searchable: true},
				{Name: "name", Searchable: true},
				{Name: "downstream_of", Relationship: "DownstreamOf"},
			},
		}
	}
	return NewRegistry("default", []EntitySpec{
		mk("dataset"),
		mk("chart"),
		mk("dataJob"),
	}, nil, nil)
}
