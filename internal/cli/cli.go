// Package cli implements the lineage command-line interface.
//
// This package provides commands for building leveled lineage graphs from
// snapshots, rendering them as visualizations, exploring them interactively,
// serving them over HTTP, and managing the snapshot store. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - build: Level a snapshot into a lineage graph
//   - render: Generate DOT, SVG, or PNG visualizations
//   - explore: Browse a graph and toggle selections in the terminal
//   - serve: Expose graphs over an HTTP API
//   - store: Manage stored snapshots and graphs
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rinzool/datahub/pkg/buildinfo"
	"github.com/rinzool/datahub/pkg/pipeline"
	"github.com/rinzool/datahub/pkg/registry"
	"github.com/rinzool/datahub/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "lineage"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "lineage",
		Short:        "Lineage builds and visualizes leveled entity lineage graphs",
		Long:         `Lineage is a CLI tool for turning raw metadata snapshots into leveled lineage graphs, rendering them, and exploring selection cascades interactively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noStore bool) (*pipeline.Runner, error) {
	st, err := newStore(noStore)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(st, c.Logger), nil
}

func newStore(noStore bool) (store.Store, error) {
	if noStore {
		return store.NewMemoryStore(), nil
	}
	dir, err := storeDir()
	if err != nil {
		return store.NewMemoryStore(), nil
	}
	return store.NewFileStore(dir)
}

// storeDir returns the store directory using XDG standard (~/.cache/lineage/).
func storeDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// loadRegistry loads the entity registry from path, falling back to the
// built-in default when path is empty.
func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.Load(path)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
