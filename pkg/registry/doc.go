// Package registry models the entity schema collaborator of the lineage
// engine: which entity types exist, which aspects they carry, which fields
// identify them, and which plugins run when entities change.
//
// # Overview
//
// The registry is loaded from a TOML definition file listing entity specs
// and their aspects. Aspects flagged as unique keys drive node
// deduplication in the lineage graph; aspects carrying a relationship name
// describe the lineage edges an entity can participate in. The registry
// itself never touches graph logic - it only answers questions about
// payload shape.
//
// # Plugins
//
// Validators, mutation hooks and side effects register against the
// registry and are dispatched by change type, entity name and aspect name,
// each plugin deciding for itself whether it applies.
//
// # Usage
//
//	reg, err := registry.Load("registry.toml")
//	g := lineage.New(lineage.Config{
//	    UniqueKeys: reg.UniqueKeys(),
//	    Extract:    reg.Accessor(),
//	})
package registry
