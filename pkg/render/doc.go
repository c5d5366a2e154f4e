// Package render holds output back-ends for topology diagrams.
//
// The [nodelink] subpackage draws the visible graph with Graphviz and the
// [scene] subpackage writes positioned JSON documents for external
// renderers. [ToPDF] and [ToPNG] convert any SVG using the external
// rsvg-convert tool from librsvg.
//
//	svg, _ := nodelink.RenderSVG(ctx, dot, false)
//	png, err := render.ToPNG(ctx, svg, 2.0)
package render
