// Package transition animates between two layout snapshots.
//
// When the user expands or collapses a node, the visible set and the
// positions change at once. [Compute] turns the old and new snapshots into a
// [State] that answers, for any t in [0,1], where each node is drawn, how
// opaque it is, and which nodes are drawn at all:
//
//   - persisting nodes glide from their old to their new position;
//   - sprouting nodes fade in while growing out of their nearest ancestor;
//   - collapsing nodes fade out while shrinking into their nearest ancestor.
//
// A State has no clock. Callers map wall-clock time to t, typically with
// [Progress] and [EaseInOut], and query the State every frame. Queries are
// O(1) map lookups and [State.VisibleIDsAt] returns a precomputed set.
//
// # Debug assertions
//
// Building with -tags agentgraph_debug turns internal invariant violations,
// such as a collapsing node without an old position, into panics. Release
// builds draw such nodes opaque at the origin.
package transition
