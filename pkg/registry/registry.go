package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntity is returned when an entity spec is requested that
	// the registry does not define.
	ErrUnknownEntity = errors.New("registry: unknown entity")

	// ErrNoUniqueKeys is returned by Validate when no aspect anywhere in
	// the registry is flagged as a unique key, which would leave the
	// lineage graph without an identity index.
	ErrNoUniqueKeys = errors.New("registry: no unique-key aspects defined")
)

// AspectSpec describes one aspect of an entity: a named slice of its
// metadata together with how the rest of the system may use it.
type AspectSpec struct {
	Name string `toml:"name"`

	// Searchable marks the aspect as part of the search index.
	Searchable bool `toml:"searchable,omitempty"`

	// Relationship, when non-empty, names the lineage relationship this
	// aspect denotes (e.g. "DownstreamOf").
	Relationship string `toml:"relationship,omitempty"`

	// UniqueKey marks the aspect's field as part of the identity used
	// for node deduplication.
	UniqueKey bool `toml:"unique_key,omitempty"`
}

// EntitySpec describes an entity type: its common name, its key aspect
// and the aspects that comprise it.
type EntitySpec struct {
	Name      string       `toml:"name"`
	KeyAspect string       `toml:"key_aspect"`
	Aspects   []AspectSpec `toml:"aspect"`
}

// Aspect returns the aspect spec with the given name.
func (s *EntitySpec) Aspect(name string) (AspectSpec, bool) {
	for _, a := range s.Aspects {
		if a.Name == name {
			return a, true
		}
	}
	return AspectSpec{}, false
}

// SearchableFields returns the names of every searchable aspect, in
// definition order.
func (s *EntitySpec) SearchableFields() []string {
	var out []string
	for _, a := range s.Aspects {
		if a.Searchable {
			out = append(out, a.Name)
		}
	}
	return out
}

// RelationshipFields returns the aspects that denote lineage
// relationships, in definition order.
func (s *EntitySpec) RelationshipFields() []AspectSpec {
	var out []AspectSpec
	for _, a := range s.Aspects {
		if a.Relationship != "" {
			out = append(out, a)
		}
	}
	return out
}

// EventSpec describes a platform event the registry knows about.
type EventSpec struct {
	Name string `toml:"name"`
}

// Registry holds entity, aspect and event specs plus the plugin factory
// dispatching validators and hooks. Build one with Load or NewRegistry.
type Registry struct {
	identifier string
	entities   map[string]*EntitySpec
	order      []string // entity definition order
	events     map[string]*EventSpec
	plugins    *PluginFactory
}

// NewRegistry assembles a registry from already-parsed specs. The plugin
// factory may be nil, in which case an empty one is used.
func NewRegistry(identifier string, entities []EntitySpec, events []EventSpec, plugins *PluginFactory) *Registry {
	if plugins == nil {
		plugins = EmptyPluginFactory()
	}
	r := &Registry{
		identifier: identifier,
		entities:   make(map[string]*EntitySpec, len(entities)),
		events:     make(map[string]*EventSpec, len(events)),
		plugins:    plugins,
	}
	for i := range entities {
		e := entities[i]
		r.entities[e.Name] = &e
		r.order = append(r.order, e.Name)
	}
	for i := range events {
		ev := events[i]
		r.events[ev.Name] = &ev
	}
	return r
}

// Identifier returns the registry's name, "Unknown" when unset.
func (r *Registry) Identifier() string {
	if r.identifier == "" {
		return "Unknown"
	}
	return r.identifier
}

// EntitySpec returns the spec for the named entity type.
func (r *Registry) EntitySpec(name string) (*EntitySpec, error) {
	s, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return s, nil
}

// EntitySpecs returns all entity specs keyed by name.
func (r *Registry) EntitySpecs() map[string]*EntitySpec { return r.entities }

// EventSpec returns the spec for the named event, or false.
func (r *Registry) EventSpec(name string) (*EventSpec, bool) {
	ev, ok := r.events[name]
	return ev, ok
}

// AspectSpecs returns every aspect spec across all entities, keyed by
// aspect name. Later entity definitions win on name collisions.
func (r *Registry) AspectSpecs() map[string]AspectSpec {
	out := make(map[string]AspectSpec)
	for _, name := range r.order {
		for _, a := range r.entities[name].Aspects {
			out[a.Name] = a
		}
	}
	return out
}

// UniqueKeys returns the ordered field names flagged as unique keys,
// following entity and aspect definition order. This is the key set the
// lineage graph deduplicates with.
func (r *Registry) UniqueKeys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, name := range r.order {
		for _, a := range r.entities[name].Aspects {
			if a.UniqueKey && !seen[a.Name] {
				keys = append(keys, a.Name)
				seen[a.Name] = true
			}
		}
	}
	return keys
}

// Accessor returns a payload accessor for Entity payloads, suitable for
// lineage.Config.Extract.
func (r *Registry) Accessor() func(payload any, key string) (string, error) {
	return func(payload any, key string) (string, error) {
		switch e := payload.(type) {
		case Entity:
			return e.Field(key)
		case *Entity:
			return e.Field(key)
		default:
			return "", fmt.Errorf("payload is %T, not a registry entity", payload)
		}
	}
}

// PluginFactory returns the registry's plugin factory.
func (r *Registry) PluginFactory() *PluginFactory { return r.plugins }

// Validate checks the registry is usable for lineage construction.
func (r *Registry) Validate() error {
	if len(r.UniqueKeys()) == 0 {
		return ErrNoUniqueKeys
	}
	for _, name := range r.order {
		s := r.entities[name]
		if s.KeyAspect == "" {
			continue
		}
		if _, ok := s.Aspect(s.KeyAspect); !ok {
			return fmt.Errorf("entity %q: key aspect %q not defined", s.Name, s.KeyAspect)
		}
	}
	return nil
}
