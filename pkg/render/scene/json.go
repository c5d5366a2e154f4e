package scene

import (
	"encoding/json"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/topology"
	"github.com/matzehuels/agentgraph/pkg/transition"
)

// Option configures scene rendering via [RenderJSON].
type Option func(*renderer)

type renderer struct {
	analysis *analysis.Analysis
	expanded layout.IDSet
	state    *transition.State
	frames   int
}

// WithAnalysis attaches the analysis so nodes carry depth, root and
// expandable flags.
func WithAnalysis(a analysis.Analysis) Option { return func(r *renderer) { r.analysis = &a } }

// WithExpanded records which nodes are expanded.
func WithExpanded(s layout.IDSet) Option { return func(r *renderer) { r.expanded = s } }

// WithTransition embeds frames sampled from s, for renderers that replay
// keyframes instead of querying a State.
func WithTransition(s *transition.State, frames int) Option {
	return func(r *renderer) { r.state = s; r.frames = frames }
}

// Scene is the renderer-facing document for one visible graph.
type Scene struct {
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Crossings int                `json:"crossings"`
	Nodes     []Node             `json:"nodes"`
	Edges     []Edge             `json:"edges"`
	Frames    []transition.Frame `json:"frames,omitempty"`
}

// Node is one positioned card.
type Node struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	W           float64 `json:"w"`
	H           float64 `json:"h"`
	Layer       int     `json:"layer"`
	Depth       int     `json:"depth"`
	Root        bool    `json:"root,omitempty"`
	Expanded    bool    `json:"expanded,omitempty"`
	Expandable  bool    `json:"expandable,omitempty"`
	Metrics     Metrics `json:"metrics"`
}

// Metrics summarises a node's executions.
type Metrics struct {
	Executions     int     `json:"executions"`
	Errors         int     `json:"errors"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
	InputTokens    int64   `json:"input_tokens"`
	OutputTokens   int64   `json:"output_tokens"`
	UniqueSessions int     `json:"unique_sessions"`
}

// Edge is one drawn connection.
type Edge struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Back        bool   `json:"back,omitempty"`
	Calls       int    `json:"calls"`
	Errors      int    `json:"errors,omitempty"`
	SampleError string `json:"sample_error,omitempty"`
}

// Build assembles the scene for vg placed by res. Nodes keep vg order; nodes
// missing from res are skipped. Back-edges follow DAG edges.
func Build(vg layout.VisibleGraph, res layout.Result, opts ...Option) Scene {
	r := renderer{}
	for _, opt := range opts {
		opt(&r)
	}

	placed := make(map[string]layout.Placement, len(res.Placements))
	for _, p := range res.Placements {
		placed[p.ID] = p
	}

	sc := Scene{
		Width:     res.Width,
		Height:    res.Height,
		Crossings: res.Crossings,
		Nodes:     make([]Node, 0, len(vg.Nodes)),
		Edges:     make([]Edge, 0, len(vg.DAGEdges)+len(vg.BackEdges)),
	}
	for _, n := range vg.Nodes {
		p, ok := placed[n.ID]
		if !ok {
			continue
		}
		sc.Nodes = append(sc.Nodes, r.node(n, p))
	}
	for _, e := range vg.DAGEdges {
		sc.Edges = append(sc.Edges, edge(e, false))
	}
	for _, e := range vg.BackEdges {
		sc.Edges = append(sc.Edges, edge(e, true))
	}
	if r.state != nil {
		sc.Frames = transition.Sample(r.state, r.frames)
	}
	return sc
}

// RenderJSON builds the scene and encodes it as indented JSON.
func RenderJSON(vg layout.VisibleGraph, res layout.Result, opts ...Option) ([]byte, error) {
	return json.MarshalIndent(Build(vg, res, opts...), "", "  ")
}

// RenderFramesJSON encodes frames sampled from s as indented JSON.
func RenderFramesJSON(s *transition.State, frames int) ([]byte, error) {
	return json.MarshalIndent(transition.Sample(s, frames), "", "  ")
}

func (r *renderer) node(n topology.Node, p layout.Placement) Node {
	out := Node{
		ID:          n.ID,
		Type:        n.Type.String(),
		Category:    layout.CategoryOf(n).String(),
		Label:       n.Label,
		Description: n.Description,
		X:           p.Position.X,
		Y:           p.Position.Y,
		W:           p.Footprint.W,
		H:           p.Footprint.H,
		Layer:       p.Layer,
		Expanded:    r.expanded.Has(n.ID),
		Metrics: Metrics{
			Executions:     n.ExecutionCount,
			Errors:         n.ErrorCount,
			InputTokens:    n.InputTokens,
			OutputTokens:   n.OutputTokens,
			UniqueSessions: n.UniqueSessions,
		},
	}
	if n.ExecutionCount > 0 {
		out.Metrics.AvgDurationMs = n.TotalDurationMs / float64(n.ExecutionCount)
	}
	if r.analysis != nil {
		out.Depth = r.analysis.NodeDepth[n.ID]
		out.Root = r.analysis.IsRoot(n.ID)
		out.Expandable = layout.Expandable(*r.analysis, n.ID)
	}
	return out
}

func edge(e topology.Edge, back bool) Edge {
	return Edge{
		From:        e.SourceID,
		To:          e.TargetID,
		Back:        back,
		Calls:       e.CallCount,
		Errors:      e.ErrorCount,
		SampleError: e.SampleError,
	}
}
