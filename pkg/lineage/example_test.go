package lineage_test

import (
	"fmt"

	"github.com/rinzool/datahub/pkg/lineage"
)

func extract(payload any, key string) (string, error) {
	m, ok := payload.(map[string]string)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", payload)
	}
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("no field %q", key)
	}
	return v, nil
}

func ExampleGraph_basic() {
	// A dataset with one source upstream and one report downstream.
	g := lineage.New(lineage.Config{
		UniqueKeys: []string{"urn"},
		Extract:    extract,
	})
	root, _ := g.AddNode(map[string]string{"urn": "urn:dataset:orders"}, nil, false)
	g.AddNode(map[string]string{"urn": "urn:dataset:raw_orders"}, root, true)
	g.AddNode(map[string]string{"urn": "urn:chart:weekly_orders"}, root, false)

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Min level:", g.MinLevel())
	// Output:
	// Nodes: 3
	// Edges: 2
	// Min level: -1
}

func ExampleGraph_Toggle() {
	g := lineage.New(lineage.Config{
		UniqueKeys: []string{"urn"},
		Extract:    extract,
	})
	root, _ := g.AddNode(map[string]string{"urn": "orders"}, nil, false)
	report, _ := g.AddNode(map[string]string{"urn": "report"}, root, false)

	// Selecting the report highlights its chain back to the root.
	g.Toggle(report.ID)
	fmt.Println("root selected:", root.Selected)
	fmt.Println("report selected:", report.Selected)
	// Output:
	// root selected: true
	// report selected: true
}
