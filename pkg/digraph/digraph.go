package digraph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Edge is a directed edge between two node IDs.
type Edge struct {
	From string
	To   string
}

// Graph is a directed graph stored as an arena of nodes with per-node
// adjacency lists. Nodes are addressed both by string ID and by dense index
// (the order in which they were added), which keeps iteration deterministic.
//
// Unlike a DAG, a Graph accepts cycles and self-loops. Parallel edges between
// the same ordered pair are coalesced.
//
// Graph is not safe for concurrent mutation. Concurrent readers are fine once
// construction is complete.
type Graph struct {
	ids   []string
	index map[string]int
	out   [][]int
	in    [][]int
	edges []Edge
	seen  map[[2]int]struct{}
}

// New creates an empty graph with room for n nodes.
func New(n int) *Graph {
	return &Graph{
		ids:   make([]string, 0, n),
		index: make(map[string]int, n),
		out:   make([][]int, 0, n),
		in:    make([][]int, 0, n),
		seen:  make(map[[2]int]struct{}),
	}
}

// AddNode adds a node and returns its index.
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID when the ID
// is already present.
func (g *Graph) AddNode(id string) (int, error) {
	if id == "" {
		return -1, ErrInvalidNodeID
	}
	if i, ok := g.index[id]; ok {
		return i, ErrDuplicateNodeID
	}
	return g.add(id), nil
}

// EnsureNode returns the index of id, adding the node if it is missing.
// Callers that coalesce duplicate input use this instead of [Graph.AddNode].
func (g *Graph) EnsureNode(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return g.add(id)
}

func (g *Graph) add(id string) int {
	i := len(g.ids)
	g.ids = append(g.ids, id)
	g.index[id] = i
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return i
}

// AddEdge adds a directed edge. Both endpoints must already exist: it returns
// ErrUnknownSourceNode or ErrUnknownTargetNode otherwise. Adding an edge that
// already exists is a no-op.
func (g *Graph) AddEdge(from, to string) error {
	fi, ok := g.index[from]
	if !ok {
		return ErrUnknownSourceNode
	}
	ti, ok := g.index[to]
	if !ok {
		return ErrUnknownTargetNode
	}
	key := [2]int{fi, ti}
	if _, dup := g.seen[key]; dup {
		return nil
	}
	g.seen[key] = struct{}{}
	g.out[fi] = append(g.out[fi], ti)
	g.in[ti] = append(g.in[ti], fi)
	g.edges = append(g.edges, Edge{From: from, To: to})
	return nil
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	fi, ok1 := g.index[from]
	ti, ok2 := g.index[to]
	if !ok1 || !ok2 {
		return false
	}
	_, ok := g.seen[[2]int{fi, ti}]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.ids) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Has reports whether id is a node of g.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Index returns the dense index of id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// ID returns the node ID at index i.
func (g *Graph) ID(i int) string { return g.ids[i] }

// Nodes returns all node IDs in insertion order. The slice is a copy.
func (g *Graph) Nodes() []string { return slices.Clone(g.ids) }

// Edges returns all edges in insertion order. The slice is a copy.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Children returns the IDs of nodes that id points to, in edge insertion order.
func (g *Graph) Children(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.out[i])
}

// Parents returns the IDs of nodes that point to id, in edge insertion order.
func (g *Graph) Parents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.in[i])
}

// ChildIndices returns the adjacency list of node i. The slice must not be
// modified.
func (g *Graph) ChildIndices(i int) []int { return g.out[i] }

// ParentIndices returns the reverse adjacency list of node i. The slice must
// not be modified.
func (g *Graph) ParentIndices(i int) []int { return g.in[i] }

// OutDegree returns the number of outgoing edges of id (self-loops included).
func (g *Graph) OutDegree(id string) int {
	if i, ok := g.index[id]; ok {
		return len(g.out[i])
	}
	return 0
}

// InDegree returns the number of incoming edges of id (self-loops included).
func (g *Graph) InDegree(id string) int {
	if i, ok := g.index[id]; ok {
		return len(g.in[i])
	}
	return 0
}

// Sources returns the IDs of nodes with no incoming edges, in insertion order.
func (g *Graph) Sources() []string {
	var out []string
	for i, id := range g.ids {
		if len(g.in[i]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

func (g *Graph) names(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = g.ids[i]
	}
	return out
}
