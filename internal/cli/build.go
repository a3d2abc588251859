package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rinzool/datahub/pkg/pipeline"
	"github.com/rinzool/datahub/pkg/snapshot"
)

// buildCommand creates the build command for leveling snapshots.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		output       string
		registryPath string
		noStore      bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "build [snapshot.json]",
		Short: "Level a snapshot into a lineage graph",
		Long: `Level a snapshot into a lineage graph.

The build command takes a snapshot file (raw entities and relations around
a root) and levels it into a lineage graph: the root at level 0, upstream
entities at negative levels, downstream ones at positive levels. The result
is written as graph.json for use by 'render' and 'explore'.

Built graphs are cached in the local store under the snapshot id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SnapshotPath = args[0]
			return c.runBuild(cmd.Context(), args[0], opts, output, registryPath, noStore)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: derived from input)")
	cmd.Flags().StringVar(&registryPath, "registry", "", "entity registry TOML file (default: built-in)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum levels from the root (default 10)")
	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum nodes to place (default 5000)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild even when a cached graph exists")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the local store")

	return cmd
}

// runBuild loads the snapshot, levels it and writes the graph file.
func (c *CLI) runBuild(ctx context.Context, input string, opts pipeline.Options, output, registryPath string, noStore bool) error {
	reg, err := loadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	opts.Registry = reg
	opts.Logger = c.Logger

	runner, err := c.newRunner(noStore)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	snap, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}

	p := newProgress(c.Logger)
	g, cached, err := runner.BuildWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	p.done(fmt.Sprintf("Leveled %d entities into %d nodes", len(snap.Entities), g.NodeCount()))

	doc, err := snapshot.FromGraph(g)
	if err != nil {
		return err
	}
	doc.ID = snap.ID

	path := output
	if path == "" {
		path = strings.TrimSuffix(input, ".json") + ".graph.json"
	}
	if err := snapshot.ExportGraph(doc, path); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}

	printSuccess("Built lineage graph for %s", snap.Root)
	printStats(g.NodeCount(), g.EdgeCount(), cached)
	printFile(path)
	return nil
}
