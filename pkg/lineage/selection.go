package lineage

import "fmt"

// Toggle flips the selection of the node with the given id and keeps the
// graph's breadcrumb invariant: at most one chain from the root outward is
// selected at a time, on one side of the root.
//
// Selecting a node first clears every selection on the node's own side,
// then selects the chain from the node back to the root. Deselecting a
// node clears it together with everything further from the root on its
// branch; deselecting the root clears the whole graph. The toggled node's
// own flag always ends up flipped, whatever the propagation touched.
//
// Every affected node is patched individually through SetNodeAttrs before
// Toggle returns. Returns ErrNodeNotFound for an unknown id.
func (g *Graph) Toggle(id int) error {
	n, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("toggle node %d: %w", id, ErrNodeNotFound)
	}

	wasSelected := n.Selected
	upstreamSide := n.Level < 0

	if wasSelected {
		if n.Level == 0 {
			g.setSelected(g.nodes, false)
		} else {
			// Continue away from the root along the branch the node
			// already sits on.
			g.setSelected([]*Node{n}, false)
			g.setSelected(g.HierarchyClosure(n, upstreamSide, 0), false)
		}
	} else {
		side := g.DownstreamNodes()
		if upstreamSide {
			side = g.UpstreamNodes()
		}
		g.setSelected(side, false)
		// The chain back toward the root, root included.
		g.setSelected(g.HierarchyClosure(n, !upstreamSide, 0), true)
	}

	selected := !wasSelected
	return g.SetNodeAttrs(n.ID, Attrs{Selected: &selected})
}

// setSelected patches each node's selection flag independently.
func (g *Graph) setSelected(nodes []*Node, selected bool) {
	for _, n := range nodes {
		v := selected
		// The id came from the graph itself, so the patch cannot fail.
		_ = g.SetNodeAttrs(n.ID, Attrs{Selected: &v})
	}
}
