// Package pipeline provides the core lineage pipeline.
//
// This package implements the complete load → build → render pipeline that
// can be used by CLI and API components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Fetch a raw lineage snapshot from a store or file
//  2. Build: Level the snapshot's relations into a lineage graph around its root
//  3. Render: Generate output in various formats (DOT, SVG, PNG, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(st, logger)
//	opts := pipeline.Options{
//	    SnapshotID: "deadbeef",
//	    Formats:    []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	snap, err := runner.Load(ctx, opts)
//	g, err := runner.Build(ctx, snap, opts)
//	artifacts, err := runner.Render(ctx, g, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/registry"
)

const (
	// DefaultMaxDepth is the maximum distance from the root, in levels,
	// that the build stage expands to. Larger snapshots are truncated, not
	// rejected, so interactive use never produces an unusably large graph.
	DefaultMaxDepth = 10

	// DefaultMaxNodes is the maximum number of nodes the build stage places.
	DefaultMaxNodes = 5000
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// Options contains all configuration for the lineage pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	SnapshotID   string `json:"snapshot_id,omitempty"`   // Key of a stored snapshot
	SnapshotPath string `json:"snapshot_path,omitempty"` // Path to a snapshot JSON file
	Refresh      bool   `json:"refresh,omitempty"`       // Bypass the cached built graph

	// Build options
	MaxDepth int `json:"max_depth,omitempty"`
	MaxNodes int `json:"max_nodes,omitempty"`

	// Render options
	Formats       []string `json:"formats,omitempty"`
	Detailed      bool     `json:"detailed,omitempty"`
	HideSelection bool     `json:"hide_selection,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger        `json:"-"`
	Registry *registry.Registry `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the built lineage graph.
	Graph *lineage.Graph

	// GraphHash is the content hash of the serialized graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// BuildHit reports whether the built graph came from the store.
	BuildHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetBuildDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for the load stage.
func (o *Options) ValidateForLoad() error {
	if o.SnapshotID == "" && o.SnapshotPath == "" {
		return fmt.Errorf("snapshot_id or snapshot_path is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetBuildDefaults sets default values for the build stage.
func (o *Options) SetBuildDefaults() {
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Registry == nil {
		o.Registry = registry.Default()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for the render stage.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDOT}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
