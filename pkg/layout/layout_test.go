package layout

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/span"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

func tools(ids ...string) []topology.Node {
	out := make([]topology.Node, len(ids))
	for i, id := range ids {
		out[i] = topology.Node{ID: id, Type: span.KindTool, Label: id}
	}
	return out
}

func edges(pairs ...string) []topology.Edge {
	out := make([]topology.Edge, len(pairs))
	for i, p := range pairs {
		src, dst, _ := strings.Cut(p, ">")
		out[i] = topology.Edge{SourceID: src, TargetID: dst}
	}
	return out
}

func TestComputePositions_Empty(t *testing.T) {
	got := ComputePositions(nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("ComputePositions(nil) = %v, want empty map", got)
	}
}

func TestComputePositions_SingleNodeAtOrigin(t *testing.T) {
	got := ComputePositions(tools("a"), nil)
	if got["a"] != (Point{}) {
		t.Errorf("position = %v, want origin", got["a"])
	}
}

func TestLayout_DuplicateIDsCoalesce(t *testing.T) {
	nodes := []topology.Node{
		{ID: "x", Type: span.KindTool},
		{ID: "x", Type: span.KindAgent},
	}
	res := NewEngine(Config{}).Layout(nodes, nil, nil)
	if len(res.Placements) != 1 || len(res.Positions) != 1 {
		t.Fatalf("placements = %+v, want one", res.Placements)
	}
	if got := res.Placements[0].Footprint; got != DefaultFootprints()[CategoryAgent] {
		t.Errorf("footprint = %v, want last occurrence (agent)", got)
	}
}

func TestLayout_UnknownEndpointsSkipped(t *testing.T) {
	got := ComputePositions(tools("a"), edges("a>ghost", "ghost>a", "a>a"))
	if len(got) != 1 || got["a"] != (Point{}) {
		t.Errorf("positions = %v, want only a at origin", got)
	}
}

func TestLayout_ChainRunsLeftToRight(t *testing.T) {
	cfg := DefaultConfig()
	got := ComputePositions(tools("a", "b", "c"), edges("a>b", "b>c"))

	w := cfg.Footprints[CategoryTool].W
	if got["a"].X != 0 || got["b"].X != w+cfg.LayerGap || got["c"].X != 2*(w+cfg.LayerGap) {
		t.Errorf("x = %v %v %v", got["a"].X, got["b"].X, got["c"].X)
	}
	if got["a"].Y != got["b"].Y || got["b"].Y != got["c"].Y {
		t.Error("single-file chain should share one row")
	}
}

func TestLayout_SourcesStartAtLayerZero(t *testing.T) {
	res := NewEngine(Config{}).Layout(tools("a", "b", "c", "d"), edges("a>b", "b>c", "d>c"), nil)
	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 0}
	for _, pl := range res.Placements {
		if pl.Layer != want[pl.ID] {
			t.Errorf("layer[%s] = %d, want %d", pl.ID, pl.Layer, want[pl.ID])
		}
	}
	if res.Positions["b"].X <= res.Positions["a"].X {
		t.Errorf("b at %v should sit right of a at %v", res.Positions["b"], res.Positions["a"])
	}

	single := NewEngine(Config{}).Layout(tools("solo"), nil, nil)
	if len(single.Placements) != 1 || single.Placements[0].Layer != 0 || single.Positions["solo"] != (Point{}) {
		t.Errorf("single node = %+v, want layer 0 at origin", single.Placements)
	}
}

func TestLayout_ColumnUsesWidestCard(t *testing.T) {
	nodes := []topology.Node{
		{ID: "r", Type: span.KindTool},
		{ID: "wide", Type: span.KindAgent},
		{ID: "narrow", Type: span.KindTool},
		{ID: "leaf", Type: span.KindTool},
	}
	got := ComputePositions(nodes, edges("r>wide", "r>narrow", "narrow>leaf"))
	cfg := DefaultConfig()
	want := cfg.Footprints[CategoryTool].W + cfg.LayerGap + cfg.Footprints[CategoryAgent].W + cfg.LayerGap
	if got["leaf"].X != want {
		t.Errorf("leaf x = %v, want %v", got["leaf"].X, want)
	}
}

func TestLayout_FanOutStackedAndCentred(t *testing.T) {
	cfg := DefaultConfig()
	got := ComputePositions(tools("a", "b", "c"), edges("a>b", "a>c"))

	h := cfg.Footprints[CategoryTool].H
	if got["b"].X != got["c"].X {
		t.Error("siblings should share a column")
	}
	if gap := got["c"].Y - got["b"].Y; gap != h+cfg.NodeGap {
		t.Errorf("sibling spacing = %v, want %v", gap, h+cfg.NodeGap)
	}
	// Column of two cards is 2h+gap tall; the single parent is centred on it.
	if want := (2*h + cfg.NodeGap - h) / 2; got["a"].Y != want {
		t.Errorf("parent y = %v, want %v", got["a"].Y, want)
	}
}

func TestLayout_ComponentsStackedVertically(t *testing.T) {
	cfg := DefaultConfig()
	got := ComputePositions(tools("a", "b", "c", "d"), edges("a>b", "c>d"))
	want := cfg.Footprints[CategoryTool].H + cfg.ComponentGap
	if got["c"] != (Point{X: 0, Y: want}) {
		t.Errorf("second component at %v, want (0, %v)", got["c"], want)
	}
	if got["a"] != (Point{}) {
		t.Errorf("first component at %v, want origin", got["a"])
	}
}

func TestLayout_MinimisesCrossings(t *testing.T) {
	res := NewEngine(Config{}).Layout(tools("r", "a", "b", "x", "y"),
		edges("r>a", "r>b", "a>y", "b>x"), nil)
	if res.Crossings != 0 {
		t.Errorf("Crossings = %d, want 0", res.Crossings)
	}
	p := res.Positions
	if (p["a"].Y < p["b"].Y) != (p["y"].Y < p["x"].Y) {
		t.Errorf("children order does not follow parents: %v", p)
	}
}

func TestLayout_UsesDepth(t *testing.T) {
	depth := map[string]int{"a": 0, "b": 1, "c": 1}
	res := NewEngine(Config{}).Layout(tools("a", "b", "c"), edges("a>b", "b>c"), depth)
	if res.Positions["b"].X != res.Positions["c"].X {
		t.Errorf("b and c share depth but x = %v, %v", res.Positions["b"].X, res.Positions["c"].X)
	}
	if res.Placements[2].Layer != 1 {
		t.Errorf("c layer = %d, want 1", res.Placements[2].Layer)
	}
}

func TestLayout_DepthGapsCompressed(t *testing.T) {
	depth := map[string]int{"a": 0, "b": 4}
	res := NewEngine(Config{}).Layout(tools("a", "b"), edges("a>b"), depth)
	if res.Placements[1].Layer != 1 {
		t.Errorf("b layer = %d, want 1 after compression", res.Placements[1].Layer)
	}
}

func TestLayout_LongEdges(t *testing.T) {
	got := ComputePositions(tools("a", "b", "c", "d"), edges("a>b", "b>c", "a>c", "a>d"))
	if !(got["a"].X < got["b"].X && got["b"].X < got["c"].X) {
		t.Errorf("long edge broke layering: %v", got)
	}
	if got["d"].X != got["b"].X {
		t.Errorf("d x = %v, want b's column %v", got["d"].X, got["b"].X)
	}
}

func TestLayout_CyclicInputTerminates(t *testing.T) {
	got := ComputePositions(tools("a", "b", "c"), edges("a>b", "b>c", "c>b"))
	if len(got) != 3 {
		t.Errorf("positions = %v, want 3", got)
	}
}

func TestLayout_NoOverlap(t *testing.T) {
	p, _ := topology.Aggregate(span.Sample(span.SampleOptions{Seed: 2, Sessions: 6}), topology.AggregateOptions{})
	a := analysis.Analyze(p)
	vg := Visible(a, ExpandAll(a))
	res := NewEngine(Config{}).Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)

	if len(res.Placements) != len(p.Nodes) {
		t.Fatalf("placed %d nodes, want %d", len(res.Placements), len(p.Nodes))
	}
	for i, u := range res.Placements {
		for _, v := range res.Placements[i+1:] {
			if u.Position.X < v.Position.X+v.Footprint.W && v.Position.X < u.Position.X+u.Footprint.W &&
				u.Position.Y < v.Position.Y+v.Footprint.H && v.Position.Y < u.Position.Y+u.Footprint.H {
				t.Errorf("%s and %s overlap", u.ID, v.ID)
			}
		}
	}
}

func TestLayout_Deterministic(t *testing.T) {
	p, _ := topology.Aggregate(span.Sample(span.SampleOptions{Seed: 8}), topology.AggregateOptions{})
	a := analysis.Analyze(p)
	vg := Visible(a, ExpandAll(a))
	first := NewEngine(Config{}).Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)
	for range 3 {
		again := NewEngine(Config{}).Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)
		for id, pt := range first.Positions {
			if again.Positions[id] != pt {
				t.Fatalf("position of %s changed: %v vs %v", id, again.Positions[id], pt)
			}
		}
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	c := Config{NodeGap: -5, LayerGap: 10}.WithDefaults()
	if c.NodeGap != 0 || c.LayerGap != 10 || c.Passes != DefaultConfig().Passes || c.Footprints == nil {
		t.Errorf("WithDefaults() = %+v", c)
	}
}

func TestFootprints_Of(t *testing.T) {
	f := Footprints{CategoryTool: {W: 10, H: 5}}
	if got := f.Of(topology.Node{Type: span.KindTool}); got != (Footprint{W: 10, H: 5}) {
		t.Errorf("Of(tool) = %v", got)
	}
	if got := f.Of(topology.Node{Type: span.KindAgent}); got != DefaultFootprints()[CategoryAgent] {
		t.Errorf("Of(agent) = %v, want default fallback", got)
	}
	entry := topology.Node{Type: span.KindAgent, IsUserEntryPoint: true}
	if CategoryOf(entry) != CategoryUserEntry {
		t.Error("entry point should use the user entry footprint")
	}
	if CategoryOf(topology.Node{Type: span.KindGlue}) != CategoryTool {
		t.Error("glue falls back to the tool footprint")
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range []Category{CategoryTool, CategoryLLM, CategoryAgent, CategoryUserEntry} {
		got, ok := ParseCategory(c.String())
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseCategory("robot"); ok {
		t.Error("unknown category should not parse")
	}
}

func TestIDSet(t *testing.T) {
	s := NewIDSet("a")
	t2 := s.Toggle("b")
	if s.Has("b") {
		t.Error("Toggle() mutated the receiver")
	}
	if !t2.Has("a") || !t2.Has("b") {
		t.Errorf("Toggle() = %v", t2)
	}
	if t3 := t2.Toggle("a"); t3.Has("a") || !t3.Has("b") {
		t.Errorf("Toggle() off = %v", t3)
	}
	var empty IDSet
	if empty.Has("x") || !empty.With("x").Has("x") || empty.Without("x") == nil {
		t.Error("nil set helpers misbehave")
	}
	if got := NewIDSet("b", "a").Sorted(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Sorted() = %v", got)
	}
}
