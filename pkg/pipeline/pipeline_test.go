package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rinzool/datahub/pkg/registry"
	"github.com/rinzool/datahub/pkg/snapshot"
	"github.com/rinzool/datahub/pkg/store"
)

func dataset(name string) registry.Entity {
	return registry.Entity{
		URN:      "urn:li:dataset:" + name,
		Type:     "dataset",
		Platform: "hive",
		Name:     name,
	}
}

// sampleSnapshot builds a snapshot with one upstream and one downstream
// neighbor around the root:
//
//	source <- root <- sink
func sampleSnapshot() *snapshot.Snapshot {
	s := snapshot.New("urn:li:dataset:root")
	s.Entities = []registry.Entity{dataset("root"), dataset("source"), dataset("sink")}
	s.Relations = []snapshot.Relation{
		{Source: "urn:li:dataset:root", Dest: "urn:li:dataset:source", Type: "DownstreamOf"},
		{Source: "urn:li:dataset:sink", Dest: "urn:li:dataset:root", Type: "DownstreamOf"},
	}
	return s
}

func TestBuildGraphLevels(t *testing.T) {
	g, err := BuildGraph(context.Background(), sampleSnapshot(), registry.Default(), DefaultMaxDepth, DefaultMaxNodes)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	want := map[string]int{"root": 0, "source": -1, "sink": 1}
	for _, n := range g.Nodes() {
		e := n.Payload.(registry.Entity)
		if lvl, ok := want[e.Name]; !ok || n.Level != lvl {
			t.Errorf("node %s: level = %d, want %d", e.Name, n.Level, lvl)
		}
	}
	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2", g.EdgeCount())
	}
}

func TestBuildGraphEdgeOrientation(t *testing.T) {
	g, err := BuildGraph(context.Background(), sampleSnapshot(), registry.Default(), DefaultMaxDepth, DefaultMaxNodes)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	// Root is id 1, upstream source id 2, downstream sink id 3. Both edges
	// point from the descendant to the ancestor.
	for _, e := range g.Edges() {
		from, _ := g.NodeByID(e.From)
		to, _ := g.NodeByID(e.To)
		if from.Level <= to.Level {
			t.Errorf("edge %+v: descendant level %d not below ancestor level %d", e, from.Level, to.Level)
		}
	}
}

func TestBuildGraphDiamond(t *testing.T) {
	s := snapshot.New("urn:li:dataset:root")
	s.Entities = []registry.Entity{
		dataset("root"), dataset("a"), dataset("b"), dataset("shared"),
	}
	s.Relations = []snapshot.Relation{
		{Source: "urn:li:dataset:root", Dest: "urn:li:dataset:a"},
		{Source: "urn:li:dataset:root", Dest: "urn:li:dataset:b"},
		{Source: "urn:li:dataset:a", Dest: "urn:li:dataset:shared"},
		{Source: "urn:li:dataset:b", Dest: "urn:li:dataset:shared"},
	}

	g, err := BuildGraph(context.Background(), s, registry.Default(), DefaultMaxDepth, DefaultMaxNodes)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("NodeCount = %d, want 4 (shared placed once)", g.NodeCount())
	}
	// Both converging relations into the shared source survive the build.
	if g.EdgeCount() != 4 {
		t.Fatalf("EdgeCount = %d, want 4", g.EdgeCount())
	}
}

func TestBuildGraphMaxDepth(t *testing.T) {
	s := snapshot.New("urn:li:dataset:n0")
	for i := 0; i < 5; i++ {
		s.Entities = append(s.Entities, dataset(fmt.Sprintf("n%d", i)))
	}
	for i := 0; i < 4; i++ {
		s.Relations = append(s.Relations, snapshot.Relation{
			Source: fmt.Sprintf("urn:li:dataset:n%d", i),
			Dest:   fmt.Sprintf("urn:li:dataset:n%d", i+1),
		})
	}

	g, err := BuildGraph(context.Background(), s, registry.Default(), 2, DefaultMaxNodes)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount = %d, want 3 (root plus two levels)", g.NodeCount())
	}
	if lvl := g.MinLevel(); lvl != -2 {
		t.Errorf("MinLevel = %d, want -2", lvl)
	}
}

func TestBuildGraphMaxNodes(t *testing.T) {
	s := snapshot.New("urn:li:dataset:root")
	s.Entities = append(s.Entities, dataset("root"))
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("up%d", i)
		s.Entities = append(s.Entities, dataset(name))
		s.Relations = append(s.Relations, snapshot.Relation{
			Source: "urn:li:dataset:root",
			Dest:   "urn:li:dataset:" + name,
		})
	}

	g, err := BuildGraph(context.Background(), s, registry.Default(), DefaultMaxDepth, 4)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("NodeCount = %d, want 4", g.NodeCount())
	}
}

func TestBuildGraphRootMissing(t *testing.T) {
	s := snapshot.New("urn:li:dataset:ghost")
	s.Entities = []registry.Entity{dataset("other")}

	_, err := BuildGraph(context.Background(), s, registry.Default(), DefaultMaxDepth, DefaultMaxNodes)
	if !errors.Is(err, ErrRootMissing) {
		t.Fatalf("err = %v, want ErrRootMissing", err)
	}
}

type rejectAll struct{}

func (rejectAll) ShouldApply(registry.ChangeType, string, string) bool { return true }
func (rejectAll) Validate(registry.Entity) error                       { return errors.New("nope") }

func TestBuildGraphValidatorRejects(t *testing.T) {
	reg := registry.NewRegistry("test", []registry.EntitySpec{
		{Name: "dataset", KeyAspect: "urn", Aspects: []registry.AspectSpec{
			{Name: "urn", UniqueKey: true},
		}},
	}, nil, registry.NewPluginFactory([]registry.Validator{rejectAll{}}, nil, nil))

	_, err := BuildGraph(context.Background(), sampleSnapshot(), reg, DefaultMaxDepth, DefaultMaxNodes)
	if err == nil {
		t.Fatal("expected validator rejection")
	}
}

// deriveSink produces a derived sink entity for every root-named dataset.
type deriveSink struct{}

func (deriveSink) ShouldApply(registry.ChangeType, string, string) bool { return true }
func (deriveSink) Produce(e registry.Entity) ([]registry.Entity, error) {
	if e.Name != "root" {
		return nil, nil
	}
	return []registry.Entity{dataset("derived")}, nil
}

func TestBuildGraphSideEffects(t *testing.T) {
	reg := registry.NewRegistry("test", []registry.EntitySpec{
		{Name: "dataset", KeyAspect: "urn", Aspects: []registry.AspectSpec{
			{Name: "urn", UniqueKey: true},
		}},
	}, nil, registry.NewPluginFactory(nil, nil, []registry.SideEffect{deriveSink{}}))

	// The relation's source entity only exists once the side effect runs.
	s := sampleSnapshot()
	s.Relations = append(s.Relations, snapshot.Relation{
		Source: "urn:li:dataset:derived",
		Dest:   "urn:li:dataset:root",
	})

	g, err := BuildGraph(context.Background(), s, reg, DefaultMaxDepth, DefaultMaxNodes)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("NodeCount = %d, want 4 (derived entity placed)", g.NodeCount())
	}
	if len(s.Entities) != 3 {
		t.Errorf("input snapshot grew to %d entities, want 3", len(s.Entities))
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	snap := sampleSnapshot()

	data, err := snapshot.MarshalSnapshot(snap)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	if err := st.Set(ctx, store.SnapshotKey(snap.ID), data, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	r := NewRunner(st, nil)
	opts := Options{
		SnapshotID: snap.ID,
		Formats:    []string{FormatDOT, FormatJSON},
	}

	result, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("stats = %d nodes / %d edges, want 3/2", result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.BuildHit {
		t.Error("first run should not hit the graph cache")
	}
	for _, format := range opts.Formats {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("artifact %q is empty", format)
		}
	}
	if result.GraphHash == "" {
		t.Error("GraphHash is empty")
	}

	// The built graph is cached under the snapshot id, so a second run hits.
	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute (cached): %v", err)
	}
	if !again.BuildHit {
		t.Error("second run should hit the graph cache")
	}
	if again.GraphHash != result.GraphHash {
		t.Errorf("cached GraphHash = %q, want %q", again.GraphHash, result.GraphHash)
	}
}

func TestRunnerLoadMiss(t *testing.T) {
	r := NewRunner(store.NewMemoryStore(), nil)
	_, err := r.Load(context.Background(), Options{SnapshotID: "absent"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want store.ErrNotFound", err)
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		formats []string
		wantErr bool
	}{
		{[]string{"dot"}, false},
		{[]string{"svg", "png", "json"}, false},
		{[]string{"pdf"}, true},
		{[]string{"svg", "bogus"}, true},
	}
	for _, tt := range tests {
		err := ValidateFormats(tt.formats)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Fatal("expected error without snapshot id or path")
	}

	opts = Options{SnapshotID: "x"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.MaxDepth != DefaultMaxDepth || opts.MaxNodes != DefaultMaxNodes {
		t.Errorf("defaults = %d/%d, want %d/%d", opts.MaxDepth, opts.MaxNodes, DefaultMaxDepth, DefaultMaxNodes)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatDOT {
		t.Errorf("Formats = %v, want [dot]", opts.Formats)
	}
	if opts.Registry == nil {
		t.Error("Registry default not applied")
	}
}
