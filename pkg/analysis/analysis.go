package analysis

import (
	"slices"

	"github.com/matzehuels/agentgraph/pkg/digraph"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// EdgeSet is a set of edge keys.
type EdgeSet map[topology.EdgeKey]struct{}

// Has reports whether k is in the set.
func (s EdgeSet) Has(k topology.EdgeKey) bool {
	_, ok := s[k]
	return ok
}

// Analysis is the structural summary of a payload: which nodes to start from,
// how deep every node sits, and which edges close cycles.
//
// Every payload edge is in exactly one of BackEdges or DAGEdges. Edges whose
// endpoints are not payload nodes are never back-edges and stay in DAGEdges;
// the layout engine skips them.
type Analysis struct {
	// RootIDs lists traversal roots; the first is the primary root. Local
	// roots of components unreachable from the primary roots are appended.
	RootIDs []string `json:"root_ids"`

	// NodeDepth is the shortest distance from any root, ignoring self-loops.
	// Roots have depth 0.
	NodeDepth map[string]int `json:"node_depth"`

	// BackEdgeKeys holds the edges that point to a node still on the DFS stack.
	BackEdgeKeys EdgeSet `json:"-"`

	// BackEdges and DAGEdges partition the payload edges, in payload order.
	BackEdges []topology.Edge `json:"back_edges"`
	DAGEdges  []topology.Edge `json:"dag_edges"`

	// ChildToParent maps each non-root node to the node it was first reached
	// from during the breadth-first traversal.
	ChildToParent map[string]string `json:"child_to_parent"`

	// Payload is the analysed input.
	Payload topology.Payload `json:"-"`

	children map[string][]string // ChildToParent inverted, in payload order
}

// IsBackEdge reports whether k was classified as a back-edge.
func (a Analysis) IsBackEdge(k topology.EdgeKey) bool { return a.BackEdgeKeys.Has(k) }

// IsRoot reports whether id is one of the traversal roots.
func (a Analysis) IsRoot(id string) bool {
	for _, r := range a.RootIDs {
		if r == id {
			return true
		}
	}
	return false
}

// Children returns the nodes whose ChildToParent anchor is id, in payload
// order. These are the nodes revealed when id is expanded.
func (a Analysis) Children(id string) []string {
	if a.children != nil {
		return slices.Clone(a.children[id])
	}
	return invertParents(a.Payload.Nodes, a.ChildToParent)[id]
}

func invertParents(nodes []topology.Node, childToParent map[string]string) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		parent, ok := childToParent[n.ID]
		if !ok || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out[parent] = append(out[parent], n.ID)
	}
	return out
}

// Analyze computes roots, depths, back-edges and disclosure anchors for p.
//
// Roots are chosen by priority: user entry points, else nodes flagged as
// roots, else nodes with no incoming edge, else the node with the highest
// out-degree (first in payload order on ties). A three-colour depth-first
// search from the roots, in order, classifies every edge that reaches a node
// still on the stack as a back-edge; self-loops always are. Depths and
// ChildToParent come from a breadth-first search over all edges, so a depth
// is the shortest distance from any root.
//
// Nodes left unreached get a local root chosen by the same rule over the
// unreached subset. The process repeats until every node is reached, so each
// disconnected component starts at depth 0.
//
// Analyze is pure and deterministic for a fixed payload order.
func Analyze(p topology.Payload) Analysis {
	g, nodes := buildGraph(p)

	const (
		white = iota
		gray
		black
	)
	color := make([]int, g.Len())
	back := make(map[[2]int]struct{})

	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		for _, v := range g.ChildIndices(u) {
			switch color[v] {
			case white:
				dfs(v)
			case gray:
				back[[2]int{u, v}] = struct{}{}
			}
		}
		color[u] = black
	}

	depth := make([]int, g.Len())
	parent := make([]int, g.Len())
	for i := range parent {
		parent[i] = -1
	}
	reached := make([]bool, g.Len())

	var roots []int
	for {
		var pending []int
		for i := range g.Len() {
			if color[i] == white {
				pending = append(pending, i)
			}
		}
		if len(pending) == 0 {
			break
		}

		batch := chooseRoots(g, nodes, pending)
		roots = append(roots, batch...)
		for _, r := range batch {
			if color[r] == white {
				dfs(r)
			}
		}
		bfs(g, batch, reached, depth, parent)
	}

	return assemble(p, g, roots, back, depth, parent)
}

// buildGraph loads the payload into an arena. Duplicate node ids coalesce,
// keeping the attributes of the last occurrence. Edges with unknown endpoints
// are left out of the arena.
func buildGraph(p topology.Payload) (*digraph.Graph, []topology.Node) {
	g := digraph.New(len(p.Nodes))
	var nodes []topology.Node
	for _, n := range p.Nodes {
		i := g.EnsureNode(n.ID)
		if i == len(nodes) {
			nodes = append(nodes, n)
		} else {
			nodes[i] = n
		}
	}
	for _, e := range p.Edges {
		_ = g.AddEdge(e.SourceID, e.TargetID)
	}
	return g, nodes
}

// chooseRoots applies the root priority to the candidate indices.
func chooseRoots(g *digraph.Graph, nodes []topology.Node, candidates []int) []int {
	pick := func(keep func(i int) bool) []int {
		var out []int
		for _, i := range candidates {
			if keep(i) {
				out = append(out, i)
			}
		}
		return out
	}

	if r := pick(func(i int) bool { return nodes[i].IsUserEntryPoint }); len(r) > 0 {
		return r
	}
	if r := pick(func(i int) bool { return nodes[i].IsRoot }); len(r) > 0 {
		return r
	}
	if r := pick(func(i int) bool { return len(g.ParentIndices(i)) == 0 }); len(r) > 0 {
		return r
	}

	best := candidates[0]
	for _, i := range candidates[1:] {
		if len(g.ChildIndices(i)) > len(g.ChildIndices(best)) {
			best = i
		}
	}
	return []int{best}
}

// bfs runs a multi-source breadth-first search from roots over every edge
// except self-loops, visiting only nodes not reached by an earlier batch. A
// back-edge may be the shortest way into a node, so it is not skipped.
func bfs(g *digraph.Graph, roots []int, reached []bool, depth, parent []int) {
	queue := make([]int, 0, len(roots))
	for _, r := range roots {
		if !reached[r] {
			reached[r] = true
			depth[r] = 0
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.ChildIndices(u) {
			if v == u || reached[v] {
				continue
			}
			reached[v] = true
			depth[v] = depth[u] + 1
			parent[v] = u
			queue = append(queue, v)
		}
	}
}

func assemble(p topology.Payload, g *digraph.Graph, roots []int, back map[[2]int]struct{}, depth, parent []int) Analysis {
	a := Analysis{
		RootIDs:       make([]string, len(roots)),
		NodeDepth:     make(map[string]int, g.Len()),
		BackEdgeKeys:  make(EdgeSet, len(back)),
		BackEdges:     []topology.Edge{},
		DAGEdges:      make([]topology.Edge, 0, len(p.Edges)),
		ChildToParent: make(map[string]string, g.Len()),
		Payload:       p,
	}
	for i, r := range roots {
		a.RootIDs[i] = g.ID(r)
	}
	for i := range g.Len() {
		id := g.ID(i)
		a.NodeDepth[id] = depth[i]
		if parent[i] >= 0 {
			a.ChildToParent[id] = g.ID(parent[i])
		}
	}

	for _, e := range p.Edges {
		u, ok1 := g.Index(e.SourceID)
		v, ok2 := g.Index(e.TargetID)
		if ok1 && ok2 {
			if _, isBack := back[[2]int{u, v}]; isBack {
				a.BackEdgeKeys[e.Key()] = struct{}{}
				a.BackEdges = append(a.BackEdges, e)
				continue
			}
		}
		a.DAGEdges = append(a.DAGEdges, e)
	}
	a.children = invertParents(p.Nodes, a.ChildToParent)
	return a
}
