// Package topology aggregates raw execution spans into a deduplicated call
// topology.
//
// Many executions of the same logical agent, tool or model collapse into one
// [Node] identified by "{type}::{label}". Parent→child relationships collapse
// into one [Edge] per ordered pair. Glue spans (routers, wrappers and other
// pass-through steps) never become nodes: a span's incoming edge is attributed
// to its nearest non-Glue ancestor instead.
//
// # Aggregation
//
//	spans, _ := span.ImportFile("spans.jsonl")
//	payload, stats := topology.Aggregate(spans, topology.AggregateOptions{
//	    Window: span.Window{Start: since},
//	})
//	fmt.Println(len(payload.Nodes), stats.Dropped)
//
// Aggregation never fails. Broken or cyclic parent chains are dropped and
// reported in [AggregateStats].
//
// # Flags
//
// Node flags are derived from the edge set by [Payload.DeriveFlags]: a node
// is a root when nothing calls it, a leaf when it calls nothing, and a user
// entry point when it is an Agent root.
package topology
