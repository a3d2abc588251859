package lineage

// HierarchyClosure walks one branch of the hierarchy from n, expanding
// breadth-first toward the root (via parents) when towardRoot is true, or
// away from it (via children) otherwise. Expansion stops at nodes whose
// level equals stopAtLevel: they are part of the result but their
// neighbors are not visited. Pass 0 to stop at the root.
//
// The result contains n itself plus every node reached in any expansion
// round. No visited set is kept: a node reachable through two converging
// paths appears once per path. Termination relies on the leveled
// parent/child discipline the graph is built with - every hop moves one
// level in the same direction.
//
// Returns nil when n is nil.
func (g *Graph) HierarchyClosure(n *Node, towardRoot bool, stopAtLevel int) []*Node {
	if n == nil {
		return nil
	}

	closure := []*Node{n}
	frontier := []*Node{n}
	for len(frontier) > 0 {
		var next []*Node
		for _, cur := range frontier {
			if cur.Level == stopAtLevel {
				continue
			}
			if towardRoot {
				next = append(next, g.Parents(cur.ID)...)
			} else {
				next = append(next, g.Children(cur.ID)...)
			}
		}
		closure = append(closure, next...)
		frontier = next
	}
	return closure
}
