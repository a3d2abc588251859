package lineage

import (
	"reflect"
	"testing"
)

func TestHierarchyClosureToRoot(t *testing.T) {
	g := newTestGraph()
	root := mustAdd(t, g, "root", nil, false)
	c := mustAdd(t, g, "c", root, false)

	got := g.HierarchyClosure(c, true, 0)
	if want := []int{c.ID, root.ID}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("closure = %v, want %v", ids(got), want)
	}
}

func TestHierarchyClosureDirections(t *testing.T) {
	// root <- d1 <- d2 downstream, root -> u1 -> u2 upstream.
	g := newTestGraph()
	root := mustAdd(t, g, "root", nil, false)
	u1 := mustAdd(t, g, "u1", root, true)
	u2 := mustAdd(t, g, "u2", u1, true)
	d1 := mustAdd(t, g, "d1", root, false)
	d2 := mustAdd(t, g, "d2", d1, false)

	tests := []struct {
		name       string
		start      *Node
		towardRoot bool
		stop       int
		want       []int
	}{
		{name: "DeepDownstreamToRoot", start: d2, towardRoot: true, stop: 0, want: []int{d2.ID, d1.ID, root.ID}},
		{name: "DeepUpstreamToRoot", start: u2, towardRoot: false, stop: 0, want: []int{u2.ID, u1.ID, root.ID}},
		{name: "RootDownstream", start: root, towardRoot: false, stop: 0, want: []int{root.ID}},
		{name: "AwayFromRootDownstream", start: d1, towardRoot: false, stop: 0, want: []int{d1.ID, d2.ID}},
		{name: "StopBeforeRoot", start: d2, towardRoot: true, stop: 1, want: []int{d2.ID, d1.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(g.HierarchyClosure(tt.start, tt.towardRoot, tt.stop))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("closure = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHierarchyClosureKeepsConvergingDuplicates(t *testing.T) {
	// A diamond: d reaches the root through two parents, so the root
	// shows up once per path. The traversal deliberately keeps both.
	g := newTestGraph()
	root := mustAdd(t, g, "root", nil, false)
	p1 := mustAdd(t, g, "p1", root, false)
	p2 := mustAdd(t, g, "p2", root, false)
	d := mustAdd(t, g, "d", p1, false)
	if _, err := g.AddNode(entity("d"), p2, false); err != nil {
		t.Fatal(err)
	}

	got := ids(g.HierarchyClosure(d, true, 0))
	want := []int{d.ID, p1.ID, p2.ID, root.ID, root.ID}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("closure = %v, want %v", got, want)
	}
}

func TestHierarchyClosureNilNode(t *testing.T) {
	g := newTestGraph()
	if got := g.HierarchyClosure(nil, true, 0); got != nil {
		t.Errorf("closure of nil = %v, want nil", got)
	}
}
