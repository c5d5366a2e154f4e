// Package pkg provides the core libraries for agentgraph, which turns
// multi-agent telemetry into an explorable call topology.
//
// # Overview
//
// Raw spans from agent frameworks describe every agent turn, LLM call and
// tool call of every session. agentgraph collapses them into one node per
// logical component and one edge per caller/callee pair, then lays the graph
// out left to right so only what the user has expanded is visible.
//
// # Architecture
//
// The typical data flow:
//
//	Spans (JSON, JSON Lines)
//	         ↓
//	    [span] package (decode, window, expr filters)
//	         ↓
//	    [topology] package (aggregate into a payload)
//	         ↓
//	    [analysis] package (roots, depths, back-edges)
//	         ↓
//	    [layout] package (visible subgraph + layered positions)
//	         ↓
//	    [transition] package (expand/collapse animation)
//	         ↓
//	    [render] packages (scene JSON, DOT, SVG, PNG, PDF)
//
// [pipeline] wires the stages together behind a [cache] and reports
// progress through [observability] hooks. [config] loads the TOML settings
// shared by the CLI.
//
// # Quick Start
//
//	spans, _ := span.ReadJSON(f)
//	p, _ := topology.Aggregate(spans, topology.AggregateOptions{})
//	a := analysis.Analyze(p)
//
//	vg := layout.Visible(a, layout.NewIDSet("Agent::orchestrator"))
//	res := layout.NewEngine(layout.DefaultConfig()).Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)
//
//	next := layout.Visible(a, layout.ExpandAll(a))
//	nextRes := layout.NewEngine(layout.DefaultConfig()).Layout(next.Nodes, next.DAGEdges, a.NodeDepth)
//	s := transition.Compute(res.Positions, nextRes.Positions, vg.IDs(), next.IDs(), a.ChildToParent)
//	frames := transition.Sample(s, 12)
//
// # Package Organization
//
//   - [span]: span records, JSON decoding, filters and synthetic samples
//   - [topology]: aggregation and the payload wire format
//   - [digraph]: small indexed directed graph used by analysis and layout
//   - [analysis]: root selection and DAG/back-edge classification
//   - [layout]: visibility, footprints and the layered layout engine
//   - [transition]: animation state and keyframe sampling
//   - [render]: nodelink (Graphviz) and scene (JSON) back-ends
//   - [pipeline]: cached end-to-end execution
//   - [cache]: file, redis and null backends with scoped keys
//   - [config]: TOML configuration
//   - [errors]: coded errors and input validation
//   - [observability]: pipeline and cache hooks
//   - [buildinfo]: version metadata
package pkg
