package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/observability"
	"github.com/rinzool/datahub/pkg/registry"
	"github.com/rinzool/datahub/pkg/snapshot"
)

// ErrRootMissing is returned when a snapshot's root URN has no entity.
var ErrRootMissing = errors.New("pipeline: root entity missing from snapshot")

// BuildGraph levels a snapshot's relations into a lineage graph around its
// root entity.
//
// The root is placed at level 0, then the graph grows breadth-first in both
// directions: entities the root (transitively) depends on fill the negative
// levels, entities depending on the root fill the positive ones. Expansion
// stops at maxDepth levels from the root or once maxNodes nodes are placed.
// Relations whose far endpoint has no entity in the snapshot are skipped.
//
// After the walk, relations between already-placed nodes are re-checked so
// converging paths keep every edge even when both endpoints were reached
// through other parents.
func BuildGraph(ctx context.Context, snap *snapshot.Snapshot, reg *registry.Registry, maxDepth, maxNodes int) (*lineage.Graph, error) {
	root, ok := snap.Entity(snap.Root)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRootMissing, snap.Root)
	}
	if err := runValidators(reg, snap.Entities); err != nil {
		return nil, err
	}
	snap, err := runSideEffects(reg, snap)
	if err != nil {
		return nil, err
	}

	g := lineage.New(lineage.Config{
		UniqueKeys: reg.UniqueKeys(),
		Extract:    reg.Accessor(),
	})

	b := &builder{
		graph:    g,
		snap:     snap,
		reg:      reg,
		maxDepth: maxDepth,
		maxNodes: maxNodes,
		bySource: make(map[string][]snapshot.Relation),
		byDest:   make(map[string][]snapshot.Relation),
	}
	for _, r := range snap.Relations {
		b.bySource[r.Source] = append(b.bySource[r.Source], r)
		b.byDest[r.Dest] = append(b.byDest[r.Dest], r)
	}

	rootNode, err := g.AddNode(applyHooks(reg, root), nil, false)
	if err != nil {
		return nil, err
	}
	observability.Graph().OnNodeAdded(ctx, rootNode.ID, rootNode.Level)

	if err := b.expand(ctx, rootNode, true); err != nil {
		return nil, err
	}
	if err := b.expand(ctx, rootNode, false); err != nil {
		return nil, err
	}
	if err := b.linkRemaining(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

type builder struct {
	graph    *lineage.Graph
	snap     *snapshot.Snapshot
	reg      *registry.Registry
	maxDepth int
	maxNodes int
	bySource map[string][]snapshot.Relation
	byDest   map[string][]snapshot.Relation
}

// expand walks one side of the graph breadth-first from the root.
//
// On the upstream side (towardRoot true) a node's neighbors are the dest
// endpoints of relations it sources: the entities it reads from. On the
// downstream side they are the source endpoints of relations pointing at it.
func (b *builder) expand(ctx context.Context, root *lineage.Node, towardRoot bool) error {
	frontier := []*lineage.Node{root}
	for depth := 0; depth < b.maxDepth && len(frontier) > 0; depth++ {
		var next []*lineage.Node
		for _, parent := range frontier {
			neighbors, err := b.neighbors(parent, towardRoot)
			if err != nil {
				return err
			}
			for _, e := range neighbors {
				if b.graph.NodeCount() >= b.maxNodes {
					return nil
				}
				before := b.graph.NodeCount()
				n, err := b.graph.AddNode(applyHooks(b.reg, e), parent, towardRoot)
				if err != nil {
					return fmt.Errorf("place %q: %w", e.URN, err)
				}
				if b.graph.NodeCount() > before {
					observability.Graph().OnNodeAdded(ctx, n.ID, n.Level)
					next = append(next, n)
				}
			}
			if err := b.markLoaded(parent.ID); err != nil {
				return err
			}
		}
		frontier = next
	}
	return nil
}

// neighbors returns the entities one hop from n on the given side.
func (b *builder) neighbors(n *lineage.Node, towardRoot bool) ([]registry.Entity, error) {
	urn, err := nodeURN(n)
	if err != nil {
		return nil, err
	}
	var out []registry.Entity
	if towardRoot {
		for _, r := range b.bySource[urn] {
			if e, ok := b.snap.Entity(r.Dest); ok {
				out = append(out, e)
			}
		}
	} else {
		for _, r := range b.byDest[urn] {
			if e, ok := b.snap.Entity(r.Source); ok {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// linkRemaining adds edges for relations whose endpoints were both placed
// but reached through different parents, so diamond shapes keep all edges.
func (b *builder) linkRemaining(ctx context.Context) error {
	for _, r := range b.snap.Relations {
		src, ok, err := b.findByURN(r.Source)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		dst, ok, err := b.findByURN(r.Dest)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		before := b.graph.EdgeCount()
		if err := b.graph.AddEdge(dst, src); err != nil {
			return err
		}
		if b.graph.EdgeCount() > before {
			observability.Graph().OnEdgeAdded(ctx, src.ID, dst.ID)
		}
	}
	return nil
}

func (b *builder) findByURN(urn string) (*lineage.Node, bool, error) {
	e, ok := b.snap.Entity(urn)
	if !ok {
		return nil, false, nil
	}
	return b.graph.FindNode(e)
}

func (b *builder) markLoaded(id int) error {
	loaded := true
	return b.graph.SetNodeAttrs(id, lineage.Attrs{Loaded: &loaded})
}

func nodeURN(n *lineage.Node) (string, error) {
	e, ok := n.Payload.(registry.Entity)
	if !ok {
		return "", fmt.Errorf("node %d: payload is %T, not a registry entity", n.ID, n.Payload)
	}
	return e.URN, nil
}

// runValidators rejects the snapshot if any registered validator vetoes one
// of its entities.
func runValidators(reg *registry.Registry, entities []registry.Entity) error {
	factory := reg.PluginFactory()
	if factory == nil {
		return nil
	}
	for _, e := range entities {
		for _, v := range factory.ValidatorsFor(registry.ChangeCreate, e.Type, "") {
			if err := v.Validate(e); err != nil {
				return fmt.Errorf("entity %q: %w", e.URN, err)
			}
		}
	}
	return nil
}

// runSideEffects appends entities produced by registered side effects,
// skipping URNs the snapshot already carries. The input snapshot is not
// modified.
func runSideEffects(reg *registry.Registry, snap *snapshot.Snapshot) (*snapshot.Snapshot, error) {
	factory := reg.PluginFactory()
	if factory == nil || len(factory.SideEffects()) == 0 {
		return snap, nil
	}

	out := *snap
	out.Entities = append([]registry.Entity(nil), snap.Entities...)
	seen := make(map[string]bool, len(out.Entities))
	for _, e := range out.Entities {
		seen[e.URN] = true
	}

	for _, e := range snap.Entities {
		for _, s := range factory.SideEffectsFor(registry.ChangeCreate, e.Type, "") {
			produced, err := s.Produce(e)
			if err != nil {
				return nil, fmt.Errorf("entity %q: side effect: %w", e.URN, err)
			}
			for _, p := range produced {
				if seen[p.URN] {
					continue
				}
				seen[p.URN] = true
				out.Entities = append(out.Entities, p)
			}
		}
	}
	return &out, nil
}

// applyHooks runs mutation hooks over an entity, returning it unchanged if
// none apply or one fails.
func applyHooks(reg *registry.Registry, e registry.Entity) registry.Entity {
	factory := reg.PluginFactory()
	if factory == nil {
		return e
	}
	for _, h := range factory.MutationHooksFor(registry.ChangeCreate, e.Type, "") {
		rewritten, err := h.Apply(e)
		if err != nil {
			continue
		}
		e = rewritten
	}
	return e
}
