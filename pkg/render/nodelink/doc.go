// Package nodelink renders the visible topology as a node-link diagram with
// Graphviz.
//
// # Usage
//
//	dot := nodelink.ToDOT(vg, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot, false)
//
// Passing a [layout.Result] in [Options.Layout] pins every card to the
// engine's placement; render such DOT with pinned=true so neato keeps the
// positions:
//
//	res := engine.Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)
//	dot := nodelink.ToDOT(vg, nodelink.Options{Layout: &res})
//	svg, err := nodelink.RenderSVG(ctx, dot, true)
//
// # Styling
//
// Cards are shaped and filled by category: user entry points get a heavy
// outline, models are ellipses, agents and tools are rounded boxes. Nodes and
// edges that recorded errors are outlined red; hovering shows the node
// description or the edge's sample error. Back-edges are dashed.
package nodelink
