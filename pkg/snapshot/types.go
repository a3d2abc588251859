package snapshot

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/registry"
)

// Snapshot is raw lineage data around one root entity, before leveling.
type Snapshot struct {
	ID        string            `json:"id" bson:"id"`
	Root      string            `json:"root" bson:"root"` // URN of the root entity
	Entities  []registry.Entity `json:"entities" bson:"entities"`
	Relations []Relation        `json:"relations" bson:"relations"`
}

// Relation is one directed lineage edge between URNs. Source is the
// descendant side (further from the root of the data flow), Dest the
// ancestor side, matching the engine's edge orientation.
type Relation struct {
	Source string `json:"source" bson:"source"`
	Dest   string `json:"dest" bson:"dest"`
	Type   string `json:"type,omitempty" bson:"type,omitempty"` // e.g. "DownstreamOf"
}

// New creates an empty snapshot for the given root URN with a fresh id.
func New(root string) *Snapshot {
	return &Snapshot{ID: uuid.NewString(), Root: root}
}

// Entity returns the entity with the given URN, or false.
func (s *Snapshot) Entity(urn string) (registry.Entity, bool) {
	for _, e := range s.Entities {
		if e.URN == urn {
			return e, true
		}
	}
	return registry.Entity{}, false
}

// Graph is the serialization form of a built lineage graph.
type Graph struct {
	ID    string         `json:"id,omitempty" bson:"id,omitempty"`
	Nodes []Node         `json:"nodes" bson:"nodes"`
	Edges []lineage.Edge `json:"edges" bson:"edges"`
}

// Node is one serialized graph node. Entity is the payload; every graph
// built through this repository stores registry entities.
type Node struct {
	ID       int             `json:"id" bson:"id"`
	Level    int             `json:"level" bson:"level"`
	Selected bool            `json:"selected,omitempty" bson:"selected,omitempty"`
	Loaded   bool            `json:"loaded,omitempty" bson:"loaded,omitempty"`
	Entity   registry.Entity `json:"entity" bson:"entity"`
}

// FromGraph converts a built graph to its serialization form. Nodes keep
// creation order, edges keep insertion order, so the output is
// deterministic. Returns an error if a payload is not a registry entity.
func FromGraph(g *lineage.Graph) (Graph, error) {
	out := Graph{
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: g.Edges(),
	}
	for _, n := range g.Nodes() {
		e, ok := entityPayload(n.Payload)
		if !ok {
			return Graph{}, fmt.Errorf("node %d: payload is %T, not a registry entity", n.ID, n.Payload)
		}
		out.Nodes = append(out.Nodes, Node{
			ID:       n.ID,
			Level:    n.Level,
			Selected: n.Selected,
			Loaded:   n.Loaded,
			Entity:   e,
		})
	}
	return out, nil
}

// ToGraph rebuilds a live graph from its serialization form by replaying
// creation in id order: roots first, every other node hanging off the
// neighbor one level closer to the root. Edges not created during the
// replay are added afterwards, and selection flags are restored last.
//
// The input must come from [FromGraph] (or honor the same discipline):
// ids dense in creation order and every non-root node connected to a
// neighbor at the adjacent root-ward level through an earlier id.
func ToGraph(doc Graph, reg *registry.Registry) (*lineage.Graph, error) {
	g := lineage.New(lineage.Config{
		UniqueKeys: reg.UniqueKeys(),
		Extract:    reg.Accessor(),
	})

	nodes := make([]Node, len(doc.Nodes))
	copy(nodes, doc.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	for _, sn := range nodes {
		parent, towardRoot, err := replayParent(g, doc, sn)
		if err != nil {
			return nil, err
		}
		n, err := g.AddNode(sn.Entity, parent, towardRoot)
		if err != nil {
			return nil, fmt.Errorf("replay node %d: %w", sn.ID, err)
		}
		if n.ID != sn.ID {
			return nil, fmt.Errorf("replay node %d: got id %d, snapshot ids are not dense", sn.ID, n.ID)
		}
		if n.Level != sn.Level {
			return nil, fmt.Errorf("replay node %d: got level %d, want %d", sn.ID, n.Level, sn.Level)
		}
	}

	for _, e := range doc.Edges {
		ancestor, ok := g.NodeByID(e.To)
		if !ok {
			return nil, fmt.Errorf("edge %+v: unknown ancestor", e)
		}
		descendant, ok := g.NodeByID(e.From)
		if !ok {
			return nil, fmt.Errorf("edge %+v: unknown descendant", e)
		}
		if err := g.AddEdge(ancestor, descendant); err != nil {
			return nil, err
		}
	}

	for _, sn := range nodes {
		if !sn.Selected && !sn.Loaded {
			continue
		}
		attrs := lineage.Attrs{}
		if sn.Selected {
			v := true
			attrs.Selected = &v
		}
		if sn.Loaded {
			v := true
			attrs.Loaded = &v
		}
		if err := g.SetNodeAttrs(sn.ID, attrs); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// replayParent picks the neighbor a node originally hung off: any edge
// endpoint one level closer to the root with a smaller id.
func replayParent(g *lineage.Graph, doc Graph, sn Node) (*lineage.Node, bool, error) {
	if sn.Level == 0 {
		return nil, false, nil
	}
	towardRoot := sn.Level < 0
	for _, e := range doc.Edges {
		var neighbor int
		if towardRoot {
			// Upstream nodes are ancestors: the parent is the edge's
			// descendant endpoint.
			if e.To != sn.ID {
				continue
			}
			neighbor = e.From
		} else {
			if e.From != sn.ID {
				continue
			}
			neighbor = e.To
		}
		if n, ok := g.NodeByID(neighbor); ok && oneCloser(n.Level, sn.Level) {
			return n, towardRoot, nil
		}
	}
	return nil, false, fmt.Errorf("node %d (level %d) has no replayable parent", sn.ID, sn.Level)
}

// oneCloser reports whether parentLevel is exactly one step closer to 0
// than level.
func oneCloser(parentLevel, level int) bool {
	if level > 0 {
		return parentLevel == level-1
	}
	return parentLevel == level+1
}

func entityPayload(payload any) (registry.Entity, bool) {
	switch e := payload.(type) {
	case registry.Entity:
		return e, true
	case *registry.Entity:
		return *e, true
	default:
		return registry.Entity{}, false
	}
}
