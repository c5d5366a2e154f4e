package topology

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/agentgraph/pkg/span"
)

func rec(id, parent string, kind span.Kind, label string) span.Record {
	return span.Record{SpanID: id, ParentID: parent, NodeType: kind, NodeLabel: label, Status: span.StatusOK}
}

func nodeIDs(p Payload) []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func edgeKeys(p Payload) []string {
	keys := make([]string, len(p.Edges))
	for i, e := range p.Edges {
		keys[i] = e.Key().String()
	}
	return keys
}

func TestLogicalID(t *testing.T) {
	if got := LogicalID(span.KindAgent, "researcher"); got != "Agent::researcher" {
		t.Errorf("LogicalID() = %q, want Agent::researcher", got)
	}
}

func TestAggregate_Empty(t *testing.T) {
	p, stats := Aggregate(nil, AggregateOptions{})
	if !p.IsEmpty() || len(p.Edges) != 0 {
		t.Errorf("Aggregate(nil) = %+v, want empty", p)
	}
	if p.Nodes == nil || p.Edges == nil {
		t.Error("empty payload should use empty slices, not nil")
	}
	if stats != (AggregateStats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
}

func TestAggregate_GlueIsTransparent(t *testing.T) {
	spans := []span.Record{
		rec("1", "", span.KindAgent, "planner"),
		rec("2", "1", span.KindGlue, "router"),
		rec("3", "2", span.KindGlue, "wrapper"),
		rec("4", "3", span.KindTool, "search"),
	}
	p, stats := Aggregate(spans, AggregateOptions{})

	if got := strings.Join(nodeIDs(p), ","); got != "Agent::planner,Tool::search" {
		t.Errorf("nodes = %s", got)
	}
	if got := strings.Join(edgeKeys(p), ","); got != "Agent::planner->Tool::search" {
		t.Errorf("edges = %s", got)
	}
	if stats.Glue != 2 || stats.Contributing != 2 {
		t.Errorf("stats = %+v, want Glue=2 Contributing=2", stats)
	}
}

func TestAggregate_GlueRootGivesNoEdge(t *testing.T) {
	spans := []span.Record{
		rec("g", "", span.KindGlue, "http"),
		rec("a", "g", span.KindAgent, "entry"),
	}
	p, _ := Aggregate(spans, AggregateOptions{})
	if len(p.Edges) != 0 {
		t.Errorf("edges = %v, want none", edgeKeys(p))
	}
	if len(p.Nodes) != 1 || !p.Nodes[0].IsUserEntryPoint {
		t.Errorf("nodes = %+v, want one user entry point", p.Nodes)
	}
}

func TestAggregate_MergesEdges(t *testing.T) {
	a1 := rec("a1", "", span.KindAgent, "a")
	a1.SessionID = "s1"
	b1 := rec("b1", "a1", span.KindTool, "b")
	b1.SessionID = "s1"
	b1.DurationMs = 10
	b1.InputTokens = 5
	a2 := rec("a2", "", span.KindAgent, "a")
	a2.SessionID = "s2"
	b2 := rec("b2", "a2", span.KindTool, "b")
	b2.SessionID = "s2"
	b2.DurationMs = 30
	b2.Status = span.StatusError
	b2.ErrorMessage = "boom"
	b3 := rec("b3", "a2", span.KindTool, "b")
	b3.SessionID = "s2"
	b3.Status = span.StatusError
	b3.ErrorMessage = "second"

	p, _ := Aggregate([]span.Record{a1, b1, a2, b2, b3}, AggregateOptions{})
	if len(p.Edges) != 1 {
		t.Fatalf("edges = %v, want one merged edge", edgeKeys(p))
	}
	e := p.Edges[0]
	if e.CallCount != 3 || e.ErrorCount != 2 || e.UniqueSessions != 2 {
		t.Errorf("edge = %+v, want calls=3 errors=2 sessions=2", e)
	}
	if e.TotalDurationMs != 40 || e.InputTokens != 5 {
		t.Errorf("edge metrics = %+v", e)
	}
	if e.SampleError != "boom" {
		t.Errorf("SampleError = %q, want first message", e.SampleError)
	}

	b := p.Nodes[p.NodeIndex()["Tool::b"]]
	if b.ExecutionCount != 3 || b.ErrorCount != 2 || b.UniqueSessions != 2 {
		t.Errorf("node b = %+v", b)
	}
	a := p.Nodes[p.NodeIndex()["Agent::a"]]
	if a.ExecutionCount != 2 || !a.IsRoot || a.IsLeaf || !a.IsUserEntryPoint {
		t.Errorf("node a = %+v", a)
	}
	if !b.IsLeaf || b.IsRoot || b.IsUserEntryPoint {
		t.Errorf("node b flags = %+v", b)
	}
}

func TestAggregate_SelfLoop(t *testing.T) {
	spans := []span.Record{
		rec("1", "", span.KindTool, "retry"),
		rec("2", "1", span.KindTool, "retry"),
	}
	p, _ := Aggregate(spans, AggregateOptions{})
	if len(p.Nodes) != 1 || len(p.Edges) != 1 || !p.Edges[0].Key().IsSelfLoop() {
		t.Fatalf("payload = %+v, want one node with a self-loop", p)
	}
	if p.Nodes[0].IsRoot || p.Nodes[0].IsLeaf {
		t.Errorf("self-looped node should be neither root nor leaf: %+v", p.Nodes[0])
	}
}

func TestAggregate_DanglingParentDropped(t *testing.T) {
	spans := []span.Record{
		rec("1", "", span.KindAgent, "a"),
		rec("2", "missing", span.KindTool, "b"),
		rec("3", "1", span.KindTool, "c"),
	}
	p, stats := Aggregate(spans, AggregateOptions{})
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}
	if got := strings.Join(nodeIDs(p), ","); got != "Agent::a,Tool::c" {
		t.Errorf("nodes = %s", got)
	}
}

func TestAggregate_GlueLoopDropped(t *testing.T) {
	spans := []span.Record{
		rec("g1", "g2", span.KindGlue, "x"),
		rec("g2", "g1", span.KindGlue, "y"),
		rec("t", "g1", span.KindTool, "stuck"),
		rec("self", "self", span.KindGlue, "z"),
		rec("u", "self", span.KindTool, "stuck2"),
	}
	p, stats := Aggregate(spans, AggregateOptions{})
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
	if !p.IsEmpty() {
		t.Errorf("nodes = %v, want none", nodeIDs(p))
	}
}

func TestAggregate_MalformedRecords(t *testing.T) {
	spans := []span.Record{
		rec("", "", span.KindAgent, "noid"),
		rec("1", "", span.KindUnknown, "odd"),
		rec("2", "", span.KindAgent, "a"),
		rec("2", "", span.KindAgent, "dup"),
	}
	p, stats := Aggregate(spans, AggregateOptions{})
	if stats.Dropped != 2 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v, want Dropped=2 Duplicates=1", stats)
	}
	if got := strings.Join(nodeIDs(p), ","); got != "Agent::a" {
		t.Errorf("nodes = %s, want first record of duplicated id", got)
	}
}

func TestAggregate_UnknownAncestorIsTransparent(t *testing.T) {
	spans := []span.Record{
		rec("1", "", span.KindAgent, "a"),
		rec("2", "1", span.KindUnknown, "odd"),
		rec("3", "2", span.KindTool, "b"),
	}
	p, _ := Aggregate(spans, AggregateOptions{})
	if got := strings.Join(edgeKeys(p), ","); got != "Agent::a->Tool::b" {
		t.Errorf("edges = %s", got)
	}
}

func TestAggregate_Window(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := rec("a", "", span.KindAgent, "a")
	a.StartTime = t0
	b := rec("b", "a", span.KindTool, "b")
	b.StartTime = t0.Add(2 * time.Hour)
	c := rec("c", "a", span.KindTool, "c")
	c.StartTime = t0.Add(5 * time.Hour)

	w := span.Window{Start: t0.Add(time.Hour), End: t0.Add(3 * time.Hour)}
	p, stats := Aggregate([]span.Record{a, b, c}, AggregateOptions{Window: w})

	if stats.Excluded != 2 || stats.Contributing != 1 {
		t.Errorf("stats = %+v, want Excluded=2 Contributing=1", stats)
	}
	// The out-of-window parent still anchors the edge, with zero executions.
	if got := strings.Join(nodeIDs(p), ","); got != "Tool::b,Agent::a" {
		t.Errorf("nodes = %s", got)
	}
	if got := strings.Join(edgeKeys(p), ","); got != "Agent::a->Tool::b" {
		t.Errorf("edges = %s", got)
	}
	if n := p.Nodes[p.NodeIndex()["Agent::a"]]; n.ExecutionCount != 0 || !n.IsRoot {
		t.Errorf("anchor node = %+v", n)
	}
	if !p.Window.Start.Equal(w.Start) {
		t.Errorf("Window = %+v, want %+v", p.Window, w)
	}
}

func TestAggregate_Filter(t *testing.T) {
	f, err := span.CompileFilter(`type != "LLM"`)
	if err != nil {
		t.Fatal(err)
	}
	spans := []span.Record{
		rec("1", "", span.KindAgent, "a"),
		rec("2", "1", span.KindLLM, "gpt"),
		rec("3", "1", span.KindTool, "t"),
	}
	p, stats := Aggregate(spans, AggregateOptions{Filter: f})
	if stats.Excluded != 1 {
		t.Errorf("Excluded = %d, want 1", stats.Excluded)
	}
	if got := strings.Join(nodeIDs(p), ","); got != "Agent::a,Tool::t" {
		t.Errorf("nodes = %s", got)
	}
}

func TestAggregate_Description(t *testing.T) {
	a := rec("1", "", span.KindAgent, "a")
	b := rec("2", "", span.KindAgent, "a")
	b.Description = "does things"
	p, _ := Aggregate([]span.Record{a, b}, AggregateOptions{})
	if p.Nodes[0].Description != "does things" {
		t.Errorf("Description = %q, want first non-empty", p.Nodes[0].Description)
	}
}

func TestAggregate_Sample(t *testing.T) {
	spans := span.Sample(span.SampleOptions{Seed: 3, Sessions: 8})
	p, stats := Aggregate(spans, AggregateOptions{})

	if stats.Dropped != 0 || stats.Duplicates != 0 {
		t.Errorf("stats = %+v, want no malformed spans", stats)
	}
	idx := p.NodeIndex()
	if len(idx) != len(p.Nodes) {
		t.Error("node ids are not unique")
	}
	for _, n := range p.Nodes {
		if n.Type == span.KindGlue {
			t.Errorf("glue node %s in payload", n.ID)
		}
	}
	for _, e := range p.Edges {
		if _, ok := idx[e.SourceID]; !ok {
			t.Errorf("edge %s has unknown source", e.Key())
		}
		if _, ok := idx[e.TargetID]; !ok {
			t.Errorf("edge %s has unknown target", e.Key())
		}
	}
	entry := p.Nodes[idx["Agent::orchestrator"]]
	if !entry.IsUserEntryPoint {
		t.Errorf("orchestrator should be the user entry point: %+v", entry)
	}
	if _, ok := idx["Agent::researcher"]; !ok {
		t.Error("researcher missing from sample topology")
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	spans := span.Sample(span.SampleOptions{Seed: 11})
	a, _ := Aggregate(spans, AggregateOptions{})
	b, _ := Aggregate(spans, AggregateOptions{})
	if strings.Join(nodeIDs(a), ",") != strings.Join(nodeIDs(b), ",") ||
		strings.Join(edgeKeys(a), ",") != strings.Join(edgeKeys(b), ",") {
		t.Error("Aggregate() output order is not deterministic")
	}
}

func TestPayload_RoundTrip(t *testing.T) {
	p, _ := Aggregate(span.Sample(span.SampleOptions{Seed: 5}), AggregateOptions{})

	var buf bytes.Buffer
	if err := WritePayload(p, &buf); err != nil {
		t.Fatalf("WritePayload() error = %v", err)
	}
	got, err := ReadPayload(&buf)
	if err != nil {
		t.Fatalf("ReadPayload() error = %v", err)
	}
	if len(got.Nodes) != len(p.Nodes) || len(got.Edges) != len(p.Edges) {
		t.Fatalf("round trip = %d nodes %d edges, want %d %d",
			len(got.Nodes), len(got.Edges), len(p.Nodes), len(p.Edges))
	}
	for i := range p.Nodes {
		if got.Nodes[i] != p.Nodes[i] {
			t.Errorf("node %d = %+v, want %+v", i, got.Nodes[i], p.Nodes[i])
		}
	}
}

func TestReadPayload_DerivesFlags(t *testing.T) {
	in := `{"nodes":[{"id":"Agent::a","type":"agent","label":"a","is_root":false},
	{"id":"Tool::b","type":"Tool","label":"b","is_root":true}],
	"edges":[{"source_id":"Agent::a","target_id":"Tool::b","call_count":1}]}`
	p, err := ReadPayload(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadPayload() error = %v", err)
	}
	if !p.Nodes[0].IsUserEntryPoint || p.Nodes[1].IsRoot {
		t.Errorf("flags not derived: %+v", p.Nodes)
	}
}

func TestReadPayloadFile_Missing(t *testing.T) {
	if _, err := ReadPayloadFile(t.TempDir() + "/nope.json"); err == nil {
		t.Error("ReadPayloadFile() should fail for a missing file")
	}
}

func TestWritePayloadFile(t *testing.T) {
	p, _ := Aggregate(span.Sample(span.SampleOptions{Seed: 9, Sessions: 1}), AggregateOptions{})
	path := filepath.Join(t.TempDir(), "topology.payload.json")

	if err := WritePayloadFile(p, path); err != nil {
		t.Fatalf("WritePayloadFile() error = %v", err)
	}
	got, err := ReadPayloadFile(path)
	if err != nil {
		t.Fatalf("ReadPayloadFile() error = %v", err)
	}
	if len(got.Nodes) != len(p.Nodes) || len(got.Edges) != len(p.Edges) {
		t.Errorf("file round trip = %d nodes %d edges, want %d %d",
			len(got.Nodes), len(got.Edges), len(p.Nodes), len(p.Edges))
	}
	if err := WritePayloadFile(p, filepath.Join(t.TempDir(), "missing", "x.json")); err == nil {
		t.Error("WritePayloadFile() should fail when the directory does not exist")
	}
}
