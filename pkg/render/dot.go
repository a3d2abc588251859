// Package render turns a lineage graph into Graphviz output.
//
// The graph is drawn left to right: upstream levels on the left, the root
// in the middle, downstream levels on the right, with nodes of one level
// sharing a rank. The currently selected path is highlighted so the
// breadcrumb chain maintained by lineage.Toggle is visible at a glance.
package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/registry"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes levels and entity types in node labels.
	Detailed bool

	// HideSelection disables highlighting of selected nodes.
	HideSelection bool
}

// ToDOT converts a lineage graph to Graphviz DOT. Nodes with
// registry.Entity payloads are labeled by display name; anything else
// falls back to the node id.
func ToDOT(g *lineage.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph lineage {\n")
	buf.WriteString("  rankdir=RL;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	levels := make(map[int][]*lineage.Node)
	for _, n := range g.Nodes() {
		levels[n.Level] = append(levels[n.Level], n)
		attrs := nodeAttrs(n, opts)
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	// One rank per level keeps the leveled structure visible.
	for _, level := range slices.Sorted(maps.Keys(levels)) {
		buf.WriteString("  { rank=same;")
		for _, n := range levels[level] {
			fmt.Fprintf(&buf, " n%d;", n.ID)
		}
		buf.WriteString(" }\n")
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *lineage.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed))}
	if n.Selected && !opts.HideSelection {
		attrs = append(attrs, "fillcolor=gold", "penwidth=2")
	}
	if n.Level == 0 {
		attrs = append(attrs, "shape=doubleoctagon")
	}
	return attrs
}

func nodeLabel(n *lineage.Node, detailed bool) string {
	label := fmt.Sprintf("#%d", n.ID)
	var entityType string
	switch e := n.Payload.(type) {
	case registry.Entity:
		label = e.DisplayName()
		entityType = e.Type
	case *registry.Entity:
		label = e.DisplayName()
		entityType = e.Type
	}
	if !detailed {
		return label
	}
	parts := []string{fmt.Sprintf("level: %d", n.Level)}
	if entityType != "" {
		parts = append(parts, "type: "+entityType)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG)
}

func renderFormat(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
