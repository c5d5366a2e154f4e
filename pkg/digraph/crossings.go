package digraph

import "slices"

// PosMap maps each ID in order to its position.
func PosMap(order []string) map[string]int {
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	return pos
}

// CountCrossings returns the total number of edge crossings between each pair
// of consecutive layers. Each layer lists node IDs in top-to-bottom order.
func CountCrossings(g *Graph, layers [][]string) int {
	crossings := 0
	for i := 0; i+1 < len(layers); i++ {
		crossings += CountLayerCrossings(g, layers[i], layers[i+1])
	}
	return crossings
}

// CountLayerCrossings counts crossings among the edges from layer a to layer b
// using a Fenwick tree, in O(E log V).
//
// Two edges (u1,v1) and (u2,v2) cross iff pos(u1) < pos(u2) and pos(v1) > pos(v2),
// so the count is the number of inversions in the target positions when edges
// are sorted by source position.
func CountLayerCrossings(g *Graph, a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	bPos := PosMap(b)

	type edge struct{ src, dst int }
	edges := make([]edge, 0, len(a)*2)
	for i, id := range a {
		for _, child := range g.Children(id) {
			if p, ok := bPos[child]; ok {
				edges = append(edges, edge{i, p})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(x, y edge) int {
		if x.src != y.src {
			return x.src - y.src
		}
		return x.dst - y.dst
	})

	fenwick := make([]int, len(b)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.dst + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for q := e.dst + 1; q < len(fenwick); q += q & (-q) {
			fenwick[q]++
		}
	}
	return crossings
}

// CountPairCrossingsWithPos counts the crossings between edges of two nodes
// that sit next to each other (first above second) and an adjacent layer whose
// positions are given by adjPos. With useParents the adjacent layer is the
// previous one, otherwise the next one.
//
// Comparing the count for (first, second) with the count for (second, first)
// tells whether swapping the pair reduces crossings.
func CountPairCrossingsWithPos(g *Graph, first, second string, adjPos map[string]int, useParents bool) int {
	var fn, sn []string
	if useParents {
		fn, sn = g.Parents(first), g.Parents(second)
	} else {
		fn, sn = g.Children(first), g.Children(second)
	}

	crossings := 0
	for _, f := range fn {
		fp, ok := adjPos[f]
		if !ok {
			continue
		}
		for _, s := range sn {
			if sp, ok := adjPos[s]; ok && fp > sp {
				crossings++
			}
		}
	}
	return crossings
}
