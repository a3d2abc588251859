package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/observability"
	"github.com/rinzool/datahub/pkg/render"
	"github.com/rinzool/datahub/pkg/snapshot"
	"github.com/rinzool/datahub/pkg/store"
)

// TTLGraph is how long built graphs stay cached in the store.
const TTLGraph = 24 * time.Hour

// Runner encapsulates pipeline execution with store-backed caching.
//
// The Runner is stateless except for the store and logger - it doesn't hold
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner backed by the given store.
// If s is nil, an in-memory store is used.
func NewRunner(s store.Store, logger *log.Logger) *Runner {
	if s == nil {
		s = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: s, Logger: logger}
}

// Execute runs the complete load → build → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	loadStart := time.Now()
	snap, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)

	r.Logger.Info("loaded snapshot",
		"root", snap.Root,
		"entities", len(snap.Entities),
		"relations", len(snap.Relations),
		"duration", result.Stats.LoadTime)

	buildStart := time.Now()
	g, buildHit, err := r.BuildWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.BuildHit = buildHit
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	if doc, err := snapshot.FromGraph(g); err == nil {
		if data, err := snapshot.MarshalGraph(doc); err == nil {
			result.GraphHash = store.Hash(data)
		}
	}

	r.Logger.Info("built graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", buildHit,
		"duration", result.Stats.BuildTime)

	renderStart := time.Now()
	artifacts, err := r.Render(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load fetches the snapshot named by the options, either from a file or
// from the store.
func (r *Runner) Load(ctx context.Context, opts Options) (*snapshot.Snapshot, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	if opts.SnapshotPath != "" {
		return snapshot.ReadSnapshotFile(opts.SnapshotPath)
	}

	key := store.SnapshotKey(opts.SnapshotID)
	data, err := r.Store.Get(ctx, key)
	if err != nil {
		observability.Store().OnStoreMiss(ctx, "snapshot")
		return nil, fmt.Errorf("snapshot %q: %w", opts.SnapshotID, err)
	}
	observability.Store().OnStoreHit(ctx, "snapshot")
	return snapshot.UnmarshalSnapshot(data)
}

// BuildWithCacheInfo levels a snapshot into a graph, serving a cached build
// from the store when one exists. The second return value reports a cache
// hit.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, snap *snapshot.Snapshot, opts Options) (*lineage.Graph, bool, error) {
	opts.SetBuildDefaults()
	r.applyLogger(&opts)

	key := store.GraphKey(snap.ID)
	if !opts.Refresh && snap.ID != "" {
		if data, err := r.Store.Get(ctx, key); err == nil {
			observability.Store().OnStoreHit(ctx, "graph")
			if g, err := r.decodeGraph(data, opts); err == nil {
				return g, true, nil
			} else {
				// A stale or corrupt cached build falls through to a rebuild.
				r.Logger.Warn("discarding cached graph", "key", key, "error", err)
			}
		} else {
			observability.Store().OnStoreMiss(ctx, "graph")
		}
	}

	g, err := BuildGraph(ctx, snap, opts.Registry, opts.MaxDepth, opts.MaxNodes)
	if err != nil {
		return nil, false, err
	}

	if snap.ID != "" {
		if doc, err := snapshot.FromGraph(g); err == nil {
			doc.ID = snap.ID
			if data, err := snapshot.MarshalGraph(doc); err == nil {
				if err := r.Store.Set(ctx, key, data, TTLGraph); err == nil {
					observability.Store().OnStoreSet(ctx, "graph", len(data))
				}
			}
		}
	}
	return g, false, nil
}

func (r *Runner) decodeGraph(data []byte, opts Options) (*lineage.Graph, error) {
	doc, err := snapshot.UnmarshalGraph(data)
	if err != nil {
		return nil, err
	}
	return snapshot.ToGraph(doc, opts.Registry)
}

// Build is a convenience wrapper that discards the cache hit info.
func (r *Runner) Build(ctx context.Context, snap *snapshot.Snapshot, opts Options) (*lineage.Graph, error) {
	g, _, err := r.BuildWithCacheInfo(ctx, snap, opts)
	return g, err
}

// Render generates artifacts for every requested format.
func (r *Runner) Render(ctx context.Context, g *lineage.Graph, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	renderOpts := render.Options{
		Detailed:      opts.Detailed,
		HideSelection: opts.HideSelection,
	}
	dot := render.ToDOT(g, renderOpts)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(dot)
		case FormatSVG:
			data, err := render.RenderSVG(dot)
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = data
		case FormatPNG:
			data, err := render.RenderPNG(dot)
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		case FormatJSON:
			doc, err := snapshot.FromGraph(g)
			if err != nil {
				return nil, err
			}
			data, err := snapshot.MarshalGraph(doc)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the store).
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
