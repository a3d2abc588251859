package lineage

import (
	"errors"
	"testing"
)

// fixtureGraph builds the canonical three-node graph:
// B (-1) <- A (0) <- C (+1), ids 1, 2, 3 for A, B, C.
func fixtureGraph(t *testing.T) (g *Graph, a, b, c *Node) {
	t.Helper()
	g = newTestGraph()
	a = mustAdd(t, g, "A", nil, false)
	b = mustAdd(t, g, "B", a, true)
	c = mustAdd(t, g, "C", a, false)
	return g, a, b, c
}

func selectionState(g *Graph) map[int]bool {
	state := make(map[int]bool, g.NodeCount())
	for _, n := range g.Nodes() {
		state[n.ID] = n.Selected
	}
	return state
}

func TestToggleSelectsChainToRoot(t *testing.T) {
	g, a, b, c := fixtureGraph(t)

	if err := g.Toggle(c.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !a.Selected || !c.Selected {
		t.Errorf("A=%v C=%v, want both selected", a.Selected, c.Selected)
	}
	if b.Selected {
		t.Error("B selected, want untouched")
	}
}

func TestToggleSelectsUpstreamChain(t *testing.T) {
	g, a, b, c := fixtureGraph(t)
	up2 := mustAdd(t, g, "B2", b, true)

	if err := g.Toggle(up2.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	for _, n := range []*Node{up2, b, a} {
		if !n.Selected {
			t.Errorf("node %d unselected, want chain to root selected", n.ID)
		}
	}
	if c.Selected {
		t.Error("downstream node selected by an upstream toggle")
	}
}

func TestToggleSwitchingBranchClearsSide(t *testing.T) {
	// Selecting a node clears its whole side first, so two sibling
	// branches can never both stay highlighted.
	g, a, _, c := fixtureGraph(t)
	c2 := mustAdd(t, g, "C2", a, false)

	if err := g.Toggle(c.ID); err != nil {
		t.Fatal(err)
	}
	if err := g.Toggle(c2.ID); err != nil {
		t.Fatal(err)
	}
	if c.Selected {
		t.Error("first branch still selected after switching")
	}
	if !c2.Selected || !a.Selected {
		t.Errorf("C2=%v A=%v, want both selected", c2.Selected, a.Selected)
	}
}

func TestToggleDeselectClearsBranchAwayFromRoot(t *testing.T) {
	// Deselecting a mid-chain node drops it and everything beyond it,
	// while the stretch between it and the root stays selected.
	g := newTestGraph()
	root := mustAdd(t, g, "root", nil, false)
	d1 := mustAdd(t, g, "d1", root, false)
	d2 := mustAdd(t, g, "d2", d1, false)

	if err := g.Toggle(d2.ID); err != nil {
		t.Fatal(err)
	}
	if err := g.Toggle(d2.ID); err != nil {
		t.Fatal(err)
	}
	if d2.Selected {
		t.Error("d2 still selected after second toggle")
	}

	// Now deselect the middle of a selected chain.
	if err := g.Toggle(d2.ID); err != nil {
		t.Fatal(err)
	}
	if err := g.Toggle(d1.ID); err != nil {
		t.Fatal(err)
	}
	if d1.Selected || d2.Selected {
		t.Errorf("d1=%v d2=%v, want branch cleared", d1.Selected, d2.Selected)
	}
	if !root.Selected {
		t.Error("root lost its selection when a branch was cleared")
	}
}

func TestToggleRoundTrip(t *testing.T) {
	g, _, _, c := fixtureGraph(t)
	before := selectionState(g)

	if err := g.Toggle(c.ID); err != nil {
		t.Fatal(err)
	}
	if err := g.Toggle(c.ID); err != nil {
		t.Fatal(err)
	}

	after := selectionState(g)
	for id, want := range before {
		if after[id] != want {
			t.Errorf("node %d: selected = %v, want %v restored", id, after[id], want)
		}
	}
}

func TestToggleRootClearsEverything(t *testing.T) {
	g, a, _, c := fixtureGraph(t)

	// Select a downstream leaf: chain c -> a becomes selected.
	if err := g.Toggle(c.ID); err != nil {
		t.Fatal(err)
	}
	// Root is now selected; toggling it clears the whole graph.
	if err := g.Toggle(a.ID); err != nil {
		t.Fatal(err)
	}
	for _, n := range g.Nodes() {
		if n.Selected {
			t.Errorf("node %d still selected after root toggle", n.ID)
		}
	}
}

func TestToggleFixture(t *testing.T) {
	// The full worked example: ids 1..3, levels 0/-1/+1, edges
	// {1,2} and {3,1}, then toggle(3).
	g, a, b, c := fixtureGraph(t)

	if a.ID != 1 || b.ID != 2 || c.ID != 3 {
		t.Fatalf("ids = %d,%d,%d, want 1,2,3", a.ID, b.ID, c.ID)
	}
	if a.Level != 0 || b.Level != -1 || c.Level != 1 {
		t.Fatalf("levels = %d,%d,%d, want 0,-1,1", a.Level, b.Level, c.Level)
	}
	wantEdges := []Edge{{From: 1, To: 2}, {From: 3, To: 1}}
	gotEdges := g.Edges()
	for i, want := range wantEdges {
		if gotEdges[i] != want {
			t.Fatalf("edge[%d] = %+v, want %+v", i, gotEdges[i], want)
		}
	}

	if err := g.Toggle(3); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	want := map[int]bool{1: true, 2: false, 3: true}
	if got := selectionState(g); got[1] != want[1] || got[2] != want[2] || got[3] != want[3] {
		t.Errorf("selection = %v, want %v", got, want)
	}
}

func TestToggleUnknownID(t *testing.T) {
	g, _, _, _ := fixtureGraph(t)
	if err := g.Toggle(404); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}
