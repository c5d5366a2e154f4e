package layout

import (
	"slices"
	"strconv"

	"github.com/matzehuels/agentgraph/pkg/digraph"
)

// maxTransposeRounds bounds the adjacent-swap refinement after each sweep.
const maxTransposeRounds = 16

type ordering struct {
	real      [][]int // arena indices per layer, top to bottom
	crossings int
}

// orderLayers minimises edge crossings inside one component.
//
// Edges spanning several layers are split into chains through virtual nodes
// so every edge joins adjacent layers; edges inside a single layer do not
// influence ordering. Starting from input order, each pass runs a downward
// and an upward barycentric sweep followed by adjacent transposition. The
// ordering with the fewest crossings seen is kept.
func orderLayers(g *digraph.Graph, comp []int, layerOf map[int]int, passes int) ordering {
	depth := 0
	for _, i := range comp {
		depth = max(depth, layerOf[i]+1)
	}

	og := digraph.New(len(comp))
	layers := make([][]string, depth)
	for _, i := range comp {
		id := g.ID(i)
		og.EnsureNode(id)
		layers[layerOf[i]] = append(layers[layerOf[i]], id)
	}

	virtual := make(map[string]bool)
	for _, u := range comp {
		for _, v := range g.ChildIndices(u) {
			a, b := u, v
			if layerOf[a] == layerOf[b] {
				continue
			}
			if layerOf[a] > layerOf[b] {
				a, b = b, a
			}
			prev := g.ID(a)
			for l := layerOf[a] + 1; l < layerOf[b]; l++ {
				vid := "\x00v" + strconv.Itoa(len(virtual))
				virtual[vid] = true
				og.EnsureNode(vid)
				layers[l] = append(layers[l], vid)
				_ = og.AddEdge(prev, vid)
				prev = vid
			}
			_ = og.AddEdge(prev, g.ID(b))
		}
	}

	best := cloneLayers(layers)
	bestCrossings := digraph.CountCrossings(og, layers)
	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		for l := 1; l < len(layers); l++ {
			sortByBarycenter(og, layers[l], digraph.PosMap(layers[l-1]), true)
		}
		for l := len(layers) - 2; l >= 0; l-- {
			sortByBarycenter(og, layers[l], digraph.PosMap(layers[l+1]), false)
		}
		transpose(og, layers)

		if c := digraph.CountCrossings(og, layers); c < bestCrossings {
			best, bestCrossings = cloneLayers(layers), c
		}
	}

	out := ordering{real: make([][]int, len(best)), crossings: bestCrossings}
	for l, layer := range best {
		for _, id := range layer {
			if virtual[id] {
				continue
			}
			i, _ := g.Index(id)
			out.real[l] = append(out.real[l], i)
		}
	}
	return out
}

// sortByBarycenter reorders layer by the mean position of each node's
// neighbours in the adjacent layer. Nodes without such neighbours keep their
// current position as key. The sort is stable.
func sortByBarycenter(g *digraph.Graph, layer []string, adjPos map[string]int, useParents bool) {
	keys := make(map[string]float64, len(layer))
	for k, id := range layer {
		var nbrs []string
		if useParents {
			nbrs = g.Parents(id)
		} else {
			nbrs = g.Children(id)
		}
		sum, n := 0.0, 0
		for _, nb := range nbrs {
			if p, ok := adjPos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		if n == 0 {
			keys[id] = float64(k)
		} else {
			keys[id] = sum / float64(n)
		}
	}
	slices.SortStableFunc(layer, func(a, b string) int {
		switch ka, kb := keys[a], keys[b]; {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		default:
			return 0
		}
	})
}

// transpose swaps adjacent nodes while doing so reduces crossings with both
// neighbouring layers.
func transpose(g *digraph.Graph, layers [][]string) {
	for round, improved := 0, true; improved && round < maxTransposeRounds; round++ {
		improved = false
		for l, layer := range layers {
			var up, down map[string]int
			if l > 0 {
				up = digraph.PosMap(layers[l-1])
			}
			if l+1 < len(layers) {
				down = digraph.PosMap(layers[l+1])
			}
			cost := func(a, b string) int {
				return digraph.CountPairCrossingsWithPos(g, a, b, up, true) +
					digraph.CountPairCrossingsWithPos(g, a, b, down, false)
			}
			for k := 0; k+1 < len(layer); k++ {
				a, b := layer[k], layer[k+1]
				if cost(b, a) < cost(a, b) {
					layer[k], layer[k+1] = b, a
					improved = true
				}
			}
		}
	}
}

func cloneLayers(layers [][]string) [][]string {
	out := make([][]string, len(layers))
	for i, l := range layers {
		out[i] = slices.Clone(l)
	}
	return out
}
