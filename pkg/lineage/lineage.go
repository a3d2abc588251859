package lineage

import "fmt"

// Accessor reads the string value of a named field from a payload.
// It is supplied by the caller at construction and is the only way the
// graph ever inspects a payload; the payload itself stays opaque.
type Accessor func(payload any, key string) (string, error)

// Config configures a lineage graph.
type Config struct {
	// UniqueKeys is the ordered list of payload field names used for
	// identity lookup and deduplication. Earlier keys take precedence
	// during lookup. An empty list disables deduplication entirely.
	UniqueKeys []string

	// Extract reads unique-key fields from payloads. Required whenever
	// UniqueKeys is non-empty.
	Extract Accessor
}

// Node is a single entity in the lineage graph.
//
// ID and Level are assigned once at creation and never change. Selected,
// Loaded and Payload are mutable through [Graph.SetNodeAttrs]; mutating
// them directly on the pointer bypasses index invalidation and must be
// avoided.
type Node struct {
	ID       int  // unique, positive, strictly increasing in creation order
	Level    int  // signed distance from the root: 0 root, <0 upstream, >0 downstream
	Selected bool // part of the currently highlighted path
	Loaded   bool // whether the entity's relations have been fetched
	Payload  any  // opaque application value
}

// Edge is a directed connection from the descendant side to the ancestor
// side: From is the node further from the root, To the node closer to it.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Attrs is a partial update applied to a node by [Graph.SetNodeAttrs].
// Nil fields are left untouched; a non-nil Payload replaces the stored one.
type Attrs struct {
	Selected *bool
	Loaded   *bool
	Payload  any
}

// Graph is an in-memory leveled lineage graph.
//
// The zero value is not usable - use [New]. Graph is not safe for
// concurrent use: all mutations must come from a single logical actor,
// mirroring the one-pane-one-user interaction it was built for.
type Graph struct {
	uniqueKeys []string
	extract    Accessor

	nodes  []*Node // insertion order
	byID   map[int]*Node
	edges  []Edge // insertion order
	nextID int

	// version is bumped on every mutation; cached derived views compare
	// against it before being served.
	version uint64
	idx     *indexes
}

// New creates an empty lineage graph with the given configuration.
func New(cfg Config) *Graph {
	return &Graph{
		uniqueKeys: cfg.UniqueKeys,
		extract:    cfg.Extract,
		byID:       make(map[int]*Node),
	}
}

// AddNode resolves payload to a node, creating it if no node with the same
// identity exists yet. Identity is determined by the configured unique keys
// through [Graph.FindNode]; a second AddNode with an equivalent payload
// returns the original node and allocates no id.
//
// A new node's level is 0 when parent is nil, parent.Level-1 when
// towardRoot is true, and parent.Level+1 otherwise. When parent is
// supplied, AddNode also ensures an edge exists between the node and the
// parent, oriented descendant to ancestor.
//
// Returns ErrInvalidConfiguration if a unique key cannot be read from
// payload, or ErrNodeNotFound if parent does not belong to this graph.
// No mutation is applied on error.
func (g *Graph) AddNode(payload any, parent *Node, towardRoot bool) (*Node, error) {
	if parent != nil {
		if _, ok := g.byID[parent.ID]; !ok {
			return nil, fmt.Errorf("parent %d: %w", parent.ID, ErrNodeNotFound)
		}
	}

	n, found, err := g.FindNode(payload)
	if err != nil {
		return nil, err
	}
	if !found {
		level := 0
		if parent != nil {
			if towardRoot {
				level = parent.Level - 1
			} else {
				level = parent.Level + 1
			}
		}
		g.nextID++
		n = &Node{ID: g.nextID, Level: level, Payload: payload}
		g.nodes = append(g.nodes, n)
		g.byID[n.ID] = n
		g.version++
	}

	if parent != nil {
		// towardRoot means the new node sits on the ancestor side of parent.
		if towardRoot {
			err = g.AddEdge(n, parent)
		} else {
			err = g.AddEdge(parent, n)
		}
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

// AddEdge records that descendant is one hop further from the root than
// ancestor, inserting the edge {From: descendant.ID, To: ancestor.ID}.
//
// The duplicate check only scans edges sharing the same From: inserting the
// same pair twice is a no-op, but the reverse pair is not detected and will
// coexist. That quirk is part of the contract (see the package tests).
//
// Returns ErrNodeNotFound if either endpoint is unknown to the graph.
func (g *Graph) AddEdge(ancestor, descendant *Node) error {
	if ancestor == nil || descendant == nil {
		return fmt.Errorf("nil endpoint: %w", ErrNodeNotFound)
	}
	if _, ok := g.byID[ancestor.ID]; !ok {
		return fmt.Errorf("ancestor %d: %w", ancestor.ID, ErrNodeNotFound)
	}
	if _, ok := g.byID[descendant.ID]; !ok {
		return fmt.Errorf("descendant %d: %w", descendant.ID, ErrNodeNotFound)
	}

	e := Edge{From: descendant.ID, To: ancestor.ID}
	for _, existing := range g.index().edgesByFrom[e.From] {
		if existing.To == e.To {
			return nil
		}
	}
	g.edges = append(g.edges, e)
	g.version++
	return nil
}

// SetNodeAttrs applies patch to the node with the given id as a shallow
// merge: only non-nil fields overwrite the current values.
//
// Returns ErrNodeNotFound for an unknown id, or ErrInvalidConfiguration
// when a replacement payload is missing a configured unique key. No field
// is modified on error.
func (g *Graph) SetNodeAttrs(id int, patch Attrs) error {
	n, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	if patch.Payload != nil {
		// Validate up front so a bad payload never lands in the unique index.
		if _, err := g.keyValues(patch.Payload); err != nil {
			return err
		}
	}

	if patch.Payload != nil {
		n.Payload = patch.Payload
	}
	if patch.Selected != nil {
		n.Selected = *patch.Selected
	}
	if patch.Loaded != nil {
		n.Loaded = *patch.Loaded
	}
	g.version++
	return nil
}

// FindNode looks a payload up through the unique-key indexes. Keys are
// tried in configured order and the first match wins. The boolean reports
// whether a node was found.
//
// Returns ErrInvalidConfiguration if a configured key cannot be read from
// payload.
func (g *Graph) FindNode(payload any) (*Node, bool, error) {
	values, err := g.keyValues(payload)
	if err != nil {
		return nil, false, err
	}
	idx := g.index()
	for i, key := range g.uniqueKeys {
		if n, ok := idx.unique[key][values[i]]; ok {
			return n, true, nil
		}
	}
	return nil, false, nil
}

// keyValues extracts every configured unique key from payload, in order.
func (g *Graph) keyValues(payload any) ([]string, error) {
	if len(g.uniqueKeys) == 0 {
		return nil, nil
	}
	if g.extract == nil {
		return nil, fmt.Errorf("unique keys configured without an accessor: %w", ErrInvalidConfiguration)
	}
	values := make([]string, len(g.uniqueKeys))
	for i, key := range g.uniqueKeys {
		v, err := g.extract(payload, key)
		if err != nil {
			return nil, fmt.Errorf("%w: read key %q: %v", ErrInvalidConfiguration, key, err)
		}
		values[i] = v
	}
	return values, nil
}
