package lineage

// indexes holds every derived view of the graph at a given version.
// A fresh instance is built lazily on first read after a mutation.
type indexes struct {
	version     uint64
	edgesByFrom map[int][]Edge
	edgesByTo   map[int][]Edge
	unique      map[string]map[string]*Node
	minLevel    int
}

// index returns the cached derived views, rebuilding them if any mutation
// happened since they were last computed.
func (g *Graph) index() *indexes {
	if g.idx != nil && g.idx.version == g.version {
		return g.idx
	}

	idx := &indexes{
		version:     g.version,
		edgesByFrom: make(map[int][]Edge, len(g.byID)),
		edgesByTo:   make(map[int][]Edge, len(g.byID)),
		unique:      make(map[string]map[string]*Node, len(g.uniqueKeys)),
	}
	for _, e := range g.edges {
		idx.edgesByFrom[e.From] = append(idx.edgesByFrom[e.From], e)
		idx.edgesByTo[e.To] = append(idx.edgesByTo[e.To], e)
	}
	for _, key := range g.uniqueKeys {
		idx.unique[key] = make(map[string]*Node, len(g.nodes))
	}
	for _, n := range g.nodes {
		if n.Level < idx.minLevel {
			idx.minLevel = n.Level
		}
		// Payloads were validated on insert, so extraction cannot fail
		// here; a skipped entry would only ever hide a programming error.
		values, err := g.keyValues(n.Payload)
		if err != nil {
			continue
		}
		// Insertion order makes the most recent node win on collisions,
		// matching the dedup lookup in AddNode.
		for i, key := range g.uniqueKeys {
			idx.unique[key][values[i]] = n
		}
	}

	g.idx = idx
	return idx
}

// NodeByID returns the node with the given id, or false if the id was
// never issued.
func (g *Graph) NodeByID(id int) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Nodes returns all nodes in creation order. The slice is a copy but the
// pointers refer to the live nodes.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// EdgesFrom returns the edges whose From endpoint is id, in insertion
// order. The returned slice is a read-only view.
func (g *Graph) EdgesFrom(id int) []Edge { return g.index().edgesByFrom[id] }

// EdgesTo returns the edges whose To endpoint is id, in insertion order.
// The returned slice is a read-only view.
func (g *Graph) EdgesTo(id int) []Edge { return g.index().edgesByTo[id] }

// Parents returns the one-hop ancestors of id: the To endpoints of every
// edge leaving it. Order follows edge insertion order.
func (g *Graph) Parents(id int) []*Node {
	edges := g.index().edgesByFrom[id]
	out := make([]*Node, 0, len(edges))
	for _, e := range edges {
		if n, ok := g.byID[e.To]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the one-hop descendants of id: the From endpoints of
// every edge arriving at it. Order follows edge insertion order.
func (g *Graph) Children(id int) []*Node {
	edges := g.index().edgesByTo[id]
	out := make([]*Node, 0, len(edges))
	for _, e := range edges {
		if n, ok := g.byID[e.From]; ok {
			out = append(out, n)
		}
	}
	return out
}

// UniqueIndex returns the identity index for one configured unique key:
// stringified field value to node, most recent writer winning. Returns nil
// for a key that was not configured. The map is a read-only view.
func (g *Graph) UniqueIndex(key string) map[string]*Node { return g.index().unique[key] }

// MinLevel returns the minimum level over all nodes, or 0 for an empty
// graph.
func (g *Graph) MinLevel() int { return g.index().minLevel }

// UpstreamNodes returns every node with a negative level, in creation
// order.
func (g *Graph) UpstreamNodes() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Level < 0 {
			out = append(out, n)
		}
	}
	return out
}

// DownstreamNodes returns every node with a positive level, in creation
// order.
func (g *Graph) DownstreamNodes() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Level > 0 {
			out = append(out, n)
		}
	}
	return out
}

// IsUpstream reports whether n sits on the upstream (ancestor) side of the
// root.
func (g *Graph) IsUpstream(n *Node) bool { return n != nil && n.Level < 0 }
