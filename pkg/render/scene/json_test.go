package scene

import (
	"encoding/json"
	"testing"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/span"
	"github.com/matzehuels/agentgraph/pkg/topology"
	"github.com/matzehuels/agentgraph/pkg/transition"
)

func fixture() (analysis.Analysis, layout.VisibleGraph, layout.Result) {
	spans := []span.Record{
		{SpanID: "1", NodeType: span.KindAgent, NodeLabel: "a", DurationMs: 100},
		{SpanID: "2", ParentID: "1", NodeType: span.KindTool, NodeLabel: "b", DurationMs: 40},
		{SpanID: "3", ParentID: "2", NodeType: span.KindAgent, NodeLabel: "a", DurationMs: 60},
	}
	p, _ := topology.Aggregate(spans, topology.AggregateOptions{})
	a := analysis.Analyze(p)
	vg := layout.Visible(a, layout.NewIDSet("Agent::a"))
	res := layout.NewEngine(layout.Config{}).Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)
	return a, vg, res
}

func TestBuild(t *testing.T) {
	a, vg, res := fixture()
	sc := Build(vg, res, WithAnalysis(a), WithExpanded(layout.NewIDSet("Agent::a")))

	if len(sc.Nodes) != 2 {
		t.Fatalf("nodes = %+v", sc.Nodes)
	}
	root := sc.Nodes[0]
	if root.ID != "Agent::a" || !root.Root || !root.Expanded || !root.Expandable {
		t.Errorf("root = %+v", root)
	}
	if root.Metrics.Executions != 2 || root.Metrics.AvgDurationMs != 80 {
		t.Errorf("root metrics = %+v", root.Metrics)
	}
	if root.W != res.Placements[0].Footprint.W {
		t.Errorf("root width = %v", root.W)
	}
	if child := sc.Nodes[1]; child.Depth != 1 || child.Expandable || child.Category != "tool" {
		t.Errorf("child = %+v", child)
	}

	var back int
	for _, e := range sc.Edges {
		if e.Back {
			back++
			if e.From != "Tool::b" || e.To != "Agent::a" {
				t.Errorf("back-edge = %+v", e)
			}
		}
	}
	if back != 1 || len(sc.Edges) != 2 {
		t.Errorf("edges = %+v", sc.Edges)
	}
	if sc.Frames != nil {
		t.Error("frames should be omitted without a transition")
	}
}

func TestRenderJSON_WithTransition(t *testing.T) {
	a, vg, res := fixture()
	before := layout.Visible(a, nil)
	old := layout.NewEngine(layout.Config{}).Layout(before.Nodes, before.DAGEdges, a.NodeDepth)
	state := transition.Compute(old.Positions, res.Positions, before.IDs(), vg.IDs(), a.ChildToParent)

	data, err := RenderJSON(vg, res, WithTransition(state, 3))
	if err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}
	var got Scene
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(got.Frames) != 3 || len(got.Frames[0].Nodes) != 2 {
		t.Errorf("frames = %+v", got.Frames)
	}
}

func TestRenderFramesJSON(t *testing.T) {
	data, err := RenderFramesJSON(transition.Empty(), 2)
	if err != nil {
		t.Fatalf("RenderFramesJSON() error = %v", err)
	}
	var frames []transition.Frame
	if err := json.Unmarshal(data, &frames); err != nil || len(frames) != 2 {
		t.Errorf("frames = %v, %v", frames, err)
	}
}
