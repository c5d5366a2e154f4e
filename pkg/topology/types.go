package topology

import (
	"github.com/matzehuels/agentgraph/pkg/span"
)

// LogicalID returns the stable identity shared by every execution of the same
// logical node: "{node_type}::{node_label}", e.g. "Agent::researcher".
func LogicalID(kind span.Kind, label string) string {
	return kind.String() + "::" + label
}

// Node is one deduplicated vertex of the call topology. Metrics aggregate every
// contributing span with the same logical id; flags are derived from the edge
// set by [Payload.DeriveFlags] and are never authored directly.
type Node struct {
	ID          string    `json:"id"`
	Type        span.Kind `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`

	ExecutionCount  int     `json:"execution_count"`
	TotalDurationMs float64 `json:"total_duration_ms"`
	InputTokens     int64   `json:"input_tokens"`
	OutputTokens    int64   `json:"output_tokens"`
	ErrorCount      int     `json:"error_count"`
	UniqueSessions  int     `json:"unique_sessions"`

	IsRoot           bool `json:"is_root"`
	IsLeaf           bool `json:"is_leaf"`
	IsUserEntryPoint bool `json:"is_user_entry_point"`
}

// EdgeKey identifies an edge by its ordered endpoints.
type EdgeKey struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// String formats the key as "source->target".
func (k EdgeKey) String() string { return k.Source + "->" + k.Target }

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (k EdgeKey) IsSelfLoop() bool { return k.Source == k.Target }

// Edge is the merged call relationship between two logical nodes. All raw
// parent→child relationships with the same ordered pair collapse into one edge.
type Edge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`

	CallCount       int     `json:"call_count"`
	ErrorCount      int     `json:"error_count"`
	InputTokens     int64   `json:"input_tokens"`
	OutputTokens    int64   `json:"output_tokens"`
	TotalDurationMs float64 `json:"total_duration_ms"`
	UniqueSessions  int     `json:"unique_sessions"`
	SampleError     string  `json:"sample_error,omitempty"`
}

// Key returns the edge identity.
func (e Edge) Key() EdgeKey { return EdgeKey{Source: e.SourceID, Target: e.TargetID} }

// Payload is the aggregated topology for one query window. It is treated as
// immutable once produced; every later stage works on its own derived values.
type Payload struct {
	Nodes  []Node      `json:"nodes"`
	Edges  []Edge      `json:"edges"`
	Window span.Window `json:"window,omitzero"`
}

// IsEmpty reports whether the payload has no nodes.
func (p Payload) IsEmpty() bool { return len(p.Nodes) == 0 }

// NodeIndex maps node ids to their position in Nodes. Duplicate ids keep
// the last position.
func (p Payload) NodeIndex() map[string]int {
	idx := make(map[string]int, len(p.Nodes))
	for i, n := range p.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// DeriveFlags recomputes IsRoot, IsLeaf and IsUserEntryPoint from the edge set:
// a node is a root iff no edge targets it, a leaf iff no edge leaves it, and a
// user entry point iff it is an Agent root.
func (p *Payload) DeriveFlags() {
	targeted := make(map[string]bool, len(p.Edges))
	sourced := make(map[string]bool, len(p.Edges))
	for _, e := range p.Edges {
		targeted[e.TargetID] = true
		sourced[e.SourceID] = true
	}
	for i := range p.Nodes {
		n := &p.Nodes[i]
		n.IsRoot = !targeted[n.ID]
		n.IsLeaf = !sourced[n.ID]
		n.IsUserEntryPoint = n.IsRoot && n.Type == span.KindAgent
	}
}
