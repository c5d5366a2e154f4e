package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/render"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// pointsPerInch converts layout units (points) to Graphviz inches.
const pointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds execution metrics to node labels and call counts to edges.
	Detailed bool

	// Layout pins every node to its computed placement. When nil, Graphviz
	// places nodes itself with the dot engine.
	Layout *layout.Result
}

// ToDOT converts a visible graph to Graphviz DOT.
//
// Card shape and fill follow the node category. Nodes that recorded errors
// get a red outline. Back-edges are drawn dashed and do not constrain
// ranking, so cycles read as feedback arrows against the main flow.
func ToDOT(vg layout.VisibleGraph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#555555\", arrowsize=0.8];\n")
	if opts.Layout != nil {
		buf.WriteString("  splines=true;\n")
		buf.WriteString("  overlap=true;\n")
	} else {
		buf.WriteString("  ranksep=0.8;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("\n")

	var placed map[string]layout.Placement
	if opts.Layout != nil {
		placed = make(map[string]layout.Placement, len(opts.Layout.Placements))
		for _, p := range opts.Layout.Placements {
			placed[p.ID] = p
		}
	}

	for _, n := range vg.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		if p, ok := placed[n.ID]; ok {
			attrs = append(attrs, fmtPin(p)...)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range vg.DAGEdges {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.SourceID, e.TargetID, fmtEdge(e, opts.Detailed, false))
	}
	for _, e := range vg.BackEdges {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.SourceID, e.TargetID, fmtEdge(e, opts.Detailed, true))
	}

	buf.WriteString("}\n")
	return buf.String()
}

type nodeStyle struct {
	shape string
	fill  string
	pen   float64
}

var styles = map[layout.Category]nodeStyle{
	layout.CategoryUserEntry: {shape: "box", fill: "#dbeafe", pen: 2.5},
	layout.CategoryAgent:     {shape: "box", fill: "#e0e7ff", pen: 1.5},
	layout.CategoryLLM:       {shape: "ellipse", fill: "#fef3c7", pen: 1},
	layout.CategoryTool:      {shape: "box", fill: "#f3f4f6", pen: 1},
}

func fmtLabel(n topology.Node, detailed bool) string {
	title := n.Label
	if title == "" {
		title = n.ID
	}
	title = n.Type.String() + ": " + title
	if !detailed {
		return title
	}

	parts := []string{
		fmt.Sprintf("runs: %d", n.ExecutionCount),
		fmt.Sprintf("avg: %.0fms", avg(n.TotalDurationMs, n.ExecutionCount)),
	}
	if tokens := n.InputTokens + n.OutputTokens; tokens > 0 {
		parts = append(parts, fmt.Sprintf("tokens: %d", tokens))
	}
	if n.ErrorCount > 0 {
		parts = append(parts, fmt.Sprintf("errors: %d", n.ErrorCount))
	}
	return title + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n topology.Node, label string) []string {
	st := styles[layout.CategoryOf(n)]
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("shape=%s", st.shape),
		fmt.Sprintf("fillcolor=%q", st.fill),
		fmt.Sprintf("penwidth=%.1f", st.pen),
	}
	if n.ErrorCount > 0 {
		attrs = append(attrs, "color=\"#dc2626\"")
	}
	if n.Description != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Description))
	}
	return attrs
}

// fmtPin fixes a node's centre and size. Graphviz's y axis points up, so the
// layout's y is negated.
func fmtPin(p layout.Placement) []string {
	cx := p.Position.X + p.Footprint.W/2
	cy := -(p.Position.Y + p.Footprint.H/2)
	return []string{
		fmt.Sprintf("pos=\"%.1f,%.1f!\"", cx, cy),
		fmt.Sprintf("width=%.3f", p.Footprint.W/pointsPerInch),
		fmt.Sprintf("height=%.3f", p.Footprint.H/pointsPerInch),
		"fixedsize=true",
	}
}

func fmtEdge(e topology.Edge, detailed, back bool) string {
	var attrs []string
	if back {
		attrs = append(attrs, "style=dashed", "constraint=false", "color=\"#9ca3af\"")
	}
	if e.ErrorCount > 0 && !back {
		attrs = append(attrs, "color=\"#dc2626\"")
	}
	if detailed && e.CallCount > 0 {
		attrs = append(attrs, fmt.Sprintf("label=%q", fmt.Sprintf("×%d", e.CallCount)))
	}
	if e.SampleError != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", e.SampleError))
	}
	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

func avg(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// RenderSVG renders DOT to SVG. With pinned set, the neato engine keeps the
// pos attributes written by [ToDOT]; otherwise dot computes the layout.
func RenderSVG(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if pinned {
		gv.SetLayout(graphviz.NEATO)
	} else {
		gv.SetLayout(graphviz.DOT)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPNG renders DOT as PNG via SVG conversion. A scale of 2.0 produces a
// 2x image. Requires rsvg-convert from librsvg.
func RenderPNG(ctx context.Context, dot string, pinned bool, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, pinned)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// RenderPDF renders DOT as PDF via SVG conversion. Requires rsvg-convert from
// librsvg.
func RenderPDF(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, pinned)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}
