// Package lineage provides an in-memory, incrementally built lineage graph
// that organizes entities into signed levels around a root.
//
// # Overview
//
// A lineage graph records one entity and everything upstream and downstream
// of it. Each node carries a signed level: 0 is the root, negative levels are
// upstream (ancestors), positive levels are downstream (descendants). Edges
// are directed from the descendant side to the ancestor side, so following
// edges always moves toward the root.
//
// The graph grows outward from the root one hop at a time: every AddNode
// call names the already known neighbor it hangs off, and the new node's
// level is derived from that neighbor. Payloads are deduplicated through a
// configurable set of unique keys, so resolving the same entity through two
// different paths yields one node.
//
// # Basic Usage
//
// Create a graph with [New], supplying the unique-key names and the accessor
// that reads those fields from a payload:
//
//	g := lineage.New(lineage.Config{
//	    UniqueKeys: []string{"urn"},
//	    Extract:    extractField,
//	})
//	root, _ := g.AddNode(dataset, nil, false)
//	up, _ := g.AddNode(source, root, true)    // level -1
//	down, _ := g.AddNode(report, root, false) // level +1
//
// Query structure with [Graph.Parents], [Graph.Children],
// [Graph.UpstreamNodes] and [Graph.DownstreamNodes]; walk whole branches
// with [Graph.HierarchyClosure]; drive the single-selected-path interaction
// with [Graph.Toggle].
//
// # Consistency Model
//
// All derived views (adjacency, unique indexes, level bounds) are cached and
// invalidated by a version counter bumped on every mutation, so reads always
// observe the latest write. The graph performs no locking: it assumes a
// single mutator at a time, exactly like a UI-driven lineage pane. Nodes and
// edges are never deleted.
package lineage
