// Package snapshot is the canonical serialization format for lineage data.
//
// Two shapes live here:
//
//   - [Snapshot]: raw lineage as ingested - a set of entities, the URN of
//     the root entity, and directed relations between URNs. This is what
//     metadata sources emit before any leveling happens.
//   - [Graph]: a built lineage graph - leveled nodes with ids, selection
//     state and payloads, plus the edge list. This round-trips through
//     [FromGraph] and [ToGraph] with full fidelity.
//
// Both shapes carry JSON and BSON tags so the same structs serve files,
// API responses and document stores.
package snapshot
