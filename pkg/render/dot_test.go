package render

import (
	"strings"
	"testing"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/registry"
)

func testGraph(t *testing.T) *lineage.Graph {
	t.Helper()
	reg := registry.Default()
	g := lineage.New(lineage.Config{UniqueKeys: reg.UniqueKeys(), Extract: reg.Accessor()})
	root, err := g.AddNode(registry.Entity{URN: "urn:dataset:orders", Name: "orders"}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode(registry.Entity{URN: "urn:dataset:raw", Name: "raw"}, root, true); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode(registry.Entity{URN: "urn:chart:weekly", Name: "weekly"}, root, false); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	g := testGraph(t)
	dot := ToDOT(g, Options{})

	for _, want := range []string{
		"digraph lineage {",
		`label="orders"`,
		`label="raw"`,
		"n1 -> n2;", // root is the descendant of its upstream source
		"n3 -> n1;", // the chart descends from the root

		"rank=same",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTHighlightsSelection(t *testing.T) {
	g := testGraph(t)
	if err := g.Toggle(3); err != nil {
		t.Fatal(err)
	}

	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, "fillcolor=gold") {
		t.Errorf("selected nodes not highlighted:\n%s", dot)
	}

	plain := ToDOT(g, Options{HideSelection: true})
	if strings.Contains(plain, "fillcolor=gold") {
		t.Error("HideSelection still highlights")
	}
}

func TestToDOTDetailed(t *testing.T) {
	g := testGraph(t)
	dot := ToDOT(g, Options{Detailed: true})
	if !strings.Contains(dot, "level: -1") {
		t.Errorf("detailed labels missing level:\n%s", dot)
	}
}
