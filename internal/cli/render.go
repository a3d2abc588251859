package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rinzool/datahub/pkg/pipeline"
)

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr   string
		output       string
		registryPath string
		noStore      bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [snapshot.json]",
		Short: "Render a lineage graph to DOT, SVG, or PNG",
		Long: `Render a lineage graph to DOT, SVG, or PNG.

The render command runs the full pipeline: it levels the snapshot into a
graph and renders it in the requested formats. Nodes on the selected
lineage path are highlighted unless --hide-selection is given.

Built graphs are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SnapshotPath = args[0]
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, registryPath, noStore)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, json (comma-separated)")
	cmd.Flags().StringVar(&registryPath, "registry", "", "entity registry TOML file (default: built-in)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include level and entity type in node labels")
	cmd.Flags().BoolVar(&opts.HideSelection, "hide-selection", false, "do not highlight the selected path")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild even when a cached graph exists")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the local store")

	return cmd
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output, registryPath string, noStore bool) error {
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

	spinner := newSpinner(ctx, "Rendering lineage...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	printSuccess("Rendered lineage graph")
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.BuildHit)

	return writeArtifacts(result.Artifacts, opts.Formats, input, output)
}

// writeArtifacts writes each rendered format to its own file. With a single
// format the output flag names the file directly; with several it acts as a
// base path and the format becomes the extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	base := basePath(output, input)
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}

		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// basePath derives the artifact base path from the output flag or the input
// file name with its extension stripped.
func basePath(output, input string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}
