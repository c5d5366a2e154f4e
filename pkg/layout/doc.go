// Package layout turns an analysed topology into positioned node cards.
//
// Layout happens in two steps. [Visible] applies progressive disclosure: only
// roots are shown until the caller expands them, and expanding a node reveals
// the children it anchors in the analysis. [Engine.Layout] then places the
// visible nodes in a layered, left-to-right arrangement:
//
//  1. Layering: analysis depth, or longest path over the DAG edges.
//  2. Ordering: barycentric sweeps and adjacent transposition, keeping the
//     ordering with the fewest crossings.
//  3. Coordinates: columns spaced by the widest card, cards stacked per column
//     and centred, components stacked vertically.
//
// Card sizes come from a [Footprints] table keyed by [Category], so user
// entry points, agents, models and tools can be sized independently.
//
// # Usage
//
//	a := analysis.Analyze(payload)
//	vg := layout.Visible(a, layout.NewIDSet("Agent::orchestrator"))
//	res := layout.NewEngine(layout.Config{}).Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)
//	for id, p := range res.Positions {
//	    fmt.Println(id, p.X, p.Y)
//	}
//
// The engine is pure: the same input always yields the same positions.
package layout
