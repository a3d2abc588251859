package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/registry"
)

func exploreFixture(t *testing.T) exploreModel {
	t.Helper()

	reg := registry.Default()
	g := lineage.New(lineage.Config{
		UniqueKeys: reg.UniqueKeys(),
		Extract:    reg.Accessor(),
	})
	entity := func(name string) registry.Entity {
		return registry.Entity{URN: "urn:li:dataset:" + name, Type: "dataset", Name: name}
	}
	root, _ := g.AddNode(entity("root"), nil, false)
	if _, err := g.AddNode(entity("source"), root, true); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := g.AddNode(entity("sink"), root, false); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	return newExploreModel(g)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExploreModelOrder(t *testing.T) {
	m := exploreFixture(t)

	// Rows are ordered by level: source (-1), root (0), sink (+1).
	levels := []int{-1, 0, 1}
	for i, n := range m.rows {
		if n.Level != levels[i] {
			t.Errorf("row %d: level = %d, want %d", i, n.Level, levels[i])
		}
	}
}

func TestExploreModelNavigation(t *testing.T) {
	m := exploreFixture(t)

	next, _ := m.Update(key("j"))
	m = next.(exploreModel)
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1 after j", m.cursor)
	}

	next, _ = m.Update(key("k"))
	m = next.(exploreModel)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 after k", m.cursor)
	}

	// Moving above the first row is a no-op.
	next, _ = m.Update(key("k"))
	m = next.(exploreModel)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 at top", m.cursor)
	}
}

func TestExploreModelToggle(t *testing.T) {
	m := exploreFixture(t)

	// Cursor starts on the upstream source; toggling selects its path to
	// the root.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(exploreModel)
	if m.err != nil {
		t.Fatalf("toggle: %v", m.err)
	}

	selected := 0
	for _, n := range m.rows {
		if n.Selected {
			selected++
		}
	}
	if selected != 2 {
		t.Errorf("selected nodes = %d, want 2 (source and root)", selected)
	}

	view := m.View()
	if !strings.Contains(view, "Explore Lineage") {
		t.Error("view is missing the title")
	}
	if !strings.Contains(view, "source") {
		t.Error("view is missing the source node")
	}
}

func TestExploreModelQuit(t *testing.T) {
	m := exploreFixture(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}
