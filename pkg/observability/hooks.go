// Package observability provides hook interfaces for instrumenting graph
// mutations and store access.
//
// # Overview
//
// The lineage packages avoid hard dependencies on any particular metrics or
// tracing system. Instead, callers register hook implementations here and the
// pipeline invokes them at well-defined points: node and edge insertion,
// selection toggles, and store reads and writes.
//
// All hooks default to no-op implementations, so instrumenting a program is
// strictly opt-in:
//
//	observability.SetGraphHooks(myHooks)
//	defer observability.Reset()
//
// # Usage
//
// Implementations must be safe for concurrent use; the pipeline may invoke
// them from multiple goroutines.
package observability

import (
	"context"
	"sync"
	"time"
)

// GraphHooks receives callbacks for lineage graph mutations.
type GraphHooks interface {
	// OnNodeAdded fires after a node is inserted at the given level.
	OnNodeAdded(ctx context.Context, id, level int)

	// OnEdgeAdded fires after an edge from descendant to ancestor is recorded.
	OnEdgeAdded(ctx context.Context, from, to int)

	// OnToggle fires after a selection toggle completes, with the number of
	// nodes whose selection state changed and the time the cascade took.
	OnToggle(ctx context.Context, id, affected int, d time.Duration)
}

// StoreHooks receives callbacks for snapshot store access.
type StoreHooks interface {
	// OnStoreHit fires when a key of the given kind is found.
	OnStoreHit(ctx context.Context, keyKind string)

	// OnStoreMiss fires when a key of the given kind is absent or expired.
	OnStoreMiss(ctx context.Context, keyKind string)

	// OnStoreSet fires after a write, with the payload size in bytes.
	OnStoreSet(ctx context.Context, keyKind string, size int)
}

// NoopGraphHooks implements GraphHooks with empty methods.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnNodeAdded(context.Context, int, int)             {}
func (NoopGraphHooks) OnEdgeAdded(context.Context, int, int)             {}
func (NoopGraphHooks) OnToggle(context.Context, int, int, time.Duration) {}

// NoopStoreHooks implements StoreHooks with empty methods.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreHit(context.Context, string)      {}
func (NoopStoreHooks) OnStoreMiss(context.Context, string)     {}
func (NoopStoreHooks) OnStoreSet(context.Context, string, int) {}

var (
	hooksMu    sync.RWMutex
	graphHooks GraphHooks = NoopGraphHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
)

// SetGraphHooks installs the process-wide graph hooks.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h == nil {
		h = NoopGraphHooks{}
	}
	graphHooks = h
}

// SetStoreHooks installs the process-wide store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h == nil {
		h = NoopStoreHooks{}
	}
	storeHooks = h
}

// Graph returns the currently installed graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Store returns the currently installed store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	storeHooks = NoopStoreHooks{}
}
