package layout

import (
	"slices"

	"github.com/matzehuels/agentgraph/pkg/digraph"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// Config tunes the layout engine. Zero fields take the defaults from
// [DefaultConfig].
type Config struct {
	LayerGap     float64    // horizontal gap after the widest card of a layer
	NodeGap      float64    // vertical gap between cards in one layer
	ComponentGap float64    // vertical gap between connected components
	Passes       int        // barycentric sweep passes
	Footprints   Footprints // card sizes by category
}

// DefaultConfig returns the built-in layout parameters.
func DefaultConfig() Config {
	return Config{
		LayerGap:     120,
		NodeGap:      40,
		ComponentGap: 80,
		Passes:       8,
		Footprints:   DefaultFootprints(),
	}
}

// WithDefaults returns c with zero fields replaced by defaults. Negative gaps
// are clamped to zero.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.LayerGap == 0 {
		c.LayerGap = d.LayerGap
	}
	if c.NodeGap == 0 {
		c.NodeGap = d.NodeGap
	}
	if c.ComponentGap == 0 {
		c.ComponentGap = d.ComponentGap
	}
	if c.Passes <= 0 {
		c.Passes = d.Passes
	}
	if c.Footprints == nil {
		c.Footprints = d.Footprints
	}
	c.LayerGap = max(c.LayerGap, 0)
	c.NodeGap = max(c.NodeGap, 0)
	c.ComponentGap = max(c.ComponentGap, 0)
	return c
}

// Placement is the computed position of one node.
type Placement struct {
	ID        string    `json:"id"`
	Position  Point     `json:"position"`
	Footprint Footprint `json:"footprint"`
	Layer     int       `json:"layer"`
	Component int       `json:"component"`
}

// Result is the output of [Engine.Layout].
type Result struct {
	Positions  Positions   `json:"positions"`
	Placements []Placement `json:"placements"` // input order, one per distinct id
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Crossings  int         `json:"crossings"`
}

// Engine computes layered positions. An Engine holds no state between calls
// and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with cfg, filling zero fields with defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.WithDefaults()}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// ComputePositions lays out nodes with the default configuration and
// longest-path layering.
func ComputePositions(nodes []topology.Node, dagEdges []topology.Edge) Positions {
	return NewEngine(Config{}).Layout(nodes, dagEdges, nil).Positions
}

// Layout places nodes in left-to-right layers.
//
// When depth is non-nil and covers every node of a component, layers follow
// it; otherwise the component is layered by longest path over dagEdges.
// Layer numbers are compressed so no column is empty. Each column starts a
// fixed gap after the widest card of the previous one; cards within a column
// are stacked top to bottom in crossing-minimised order and the column is
// centred on the component's height. Connected components are laid out
// independently and stacked vertically.
//
// Edges with unknown endpoints and self-loops are ignored. Duplicate node ids
// coalesce, the last occurrence wins. A single node sits at the origin.
func (e *Engine) Layout(nodes []topology.Node, dagEdges []topology.Edge, depth map[string]int) Result {
	res := Result{Positions: make(Positions, len(nodes)), Placements: []Placement{}}

	g, attrs := buildGraph(nodes, dagEdges)
	if g.Len() == 0 {
		return res
	}

	res.Placements = make([]Placement, g.Len())
	offset := 0.0
	for ci, comp := range components(g) {
		layers := assignLayers(g, comp, depth)
		order := orderLayers(g, comp, layers, e.cfg.Passes)
		res.Crossings += order.crossings

		width, height := e.place(order.real, attrs, offset, ci, &res)
		res.Width = max(res.Width, width)
		res.Height = offset + height
		offset += height + e.cfg.ComponentGap
	}

	for _, p := range res.Placements {
		res.Positions[p.ID] = p.Position
	}
	return res
}

// place assigns coordinates to one component whose layers hold arena indices
// in final order. It returns the component's bounding size.
func (e *Engine) place(layers [][]int, attrs []topology.Node, offsetY float64, comp int, res *Result) (float64, float64) {
	widths := make([]float64, len(layers))
	heights := make([]float64, len(layers))
	compHeight := 0.0
	for l, layer := range layers {
		for k, i := range layer {
			fp := e.cfg.Footprints.Of(attrs[i])
			widths[l] = max(widths[l], fp.W)
			heights[l] += fp.H
			if k > 0 {
				heights[l] += e.cfg.NodeGap
			}
		}
		compHeight = max(compHeight, heights[l])
	}

	x := 0.0
	for l, layer := range layers {
		y := offsetY + (compHeight-heights[l])/2
		for _, i := range layer {
			fp := e.cfg.Footprints.Of(attrs[i])
			res.Placements[i] = Placement{
				ID:        attrs[i].ID,
				Position:  Point{X: x, Y: y},
				Footprint: fp,
				Layer:     l,
				Component: comp,
			}
			y += fp.H + e.cfg.NodeGap
		}
		x += widths[l]
		if l < len(layers)-1 {
			x += e.cfg.LayerGap
		}
	}
	return x, compHeight
}

// buildGraph loads distinct nodes into an arena. attrs[i] holds the last
// occurrence of the node at arena index i.
func buildGraph(nodes []topology.Node, edges []topology.Edge) (*digraph.Graph, []topology.Node) {
	g := digraph.New(len(nodes))
	attrs := make([]topology.Node, 0, len(nodes))
	for _, n := range nodes {
		i := g.EnsureNode(n.ID)
		if i == len(attrs) {
			attrs = append(attrs, n)
		} else {
			attrs[i] = n
		}
	}
	for _, e := range edges {
		if e.SourceID == e.TargetID {
			continue
		}
		_ = g.AddEdge(e.SourceID, e.TargetID)
	}
	return g, attrs
}

// components groups arena indices into weakly connected components, ordered
// by their first node. Members keep arena order.
func components(g *digraph.Graph) [][]int {
	parent := make([]int, g.Len())
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for u := range g.Len() {
		for _, v := range g.ChildIndices(u) {
			ru, rv := find(u), find(v)
			if ru == rv {
				continue
			}
			// The smaller index stays representative so component order
			// follows first appearance.
			if ru < rv {
				parent[rv] = ru
			} else {
				parent[ru] = rv
			}
		}
	}

	slot := make(map[int]int)
	var out [][]int
	for i := range g.Len() {
		r := find(i)
		k, ok := slot[r]
		if !ok {
			k = len(out)
			slot[r] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], i)
	}
	return out
}

// assignLayers returns a compressed layer index for every member of comp.
func assignLayers(g *digraph.Graph, comp []int, depth map[string]int) map[int]int {
	raw := make(map[int]int, len(comp))
	useDepth := depth != nil
	if useDepth {
		for _, i := range comp {
			d, ok := depth[g.ID(i)]
			if !ok || d < 0 {
				useDepth = false
				break
			}
			raw[i] = d
		}
	}
	if !useDepth {
		raw = longestPath(g, comp)
	}

	levels := make([]int, 0, len(raw))
	for _, l := range raw {
		levels = append(levels, l)
	}
	slices.Sort(levels)
	levels = slices.Compact(levels)
	rank := make(map[int]int, len(levels))
	for r, l := range levels {
		rank[l] = r
	}
	for i, l := range raw {
		raw[i] = rank[l]
	}
	return raw
}

// longestPath layers comp with Kahn's algorithm so sources sit in layer 0 and
// every other node one layer after its deepest parent. Nodes left on a cycle are placed after their
// deepest already-layered parent.
func longestPath(g *digraph.Graph, comp []int) map[int]int {
	layer := make(map[int]int, len(comp))
	inDegree := make(map[int]int, len(comp))
	queue := make([]int, 0, len(comp))
	for _, i := range comp {
		layer[i] = 0
		inDegree[i] = len(g.ParentIndices(i))
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	done := make(map[int]bool, len(comp))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		done[u] = true
		for _, v := range g.ChildIndices(u) {
			if l := layer[u] + 1; l > layer[v] {
				layer[v] = l
			}
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	for _, i := range comp {
		if done[i] {
			continue
		}
		l := 0
		for _, p := range g.ParentIndices(i) {
			if done[p] {
				l = max(l, layer[p]+1)
			}
		}
		layer[i] = l
		done[i] = true
	}
	return layer
}
