package layout

import (
	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// VisibleGraph is the subgraph shown for one expand set.
type VisibleGraph struct {
	Nodes     []topology.Node `json:"nodes"`
	DAGEdges  []topology.Edge `json:"dag_edges"`
	BackEdges []topology.Edge `json:"back_edges"`
}

// IDs returns the set of visible node ids.
func (v VisibleGraph) IDs() IDSet {
	s := make(IDSet, len(v.Nodes))
	for _, n := range v.Nodes {
		s[n.ID] = struct{}{}
	}
	return s
}

// Visible derives the visible subgraph for an expand set.
//
// A node is visible iff it is a root, or its ChildToParent parent is both
// visible and expanded. Edges are included only when both endpoints are
// visible, so a back-edge into a collapsed subtree disappears with it.
// Expanding a node that is not visible has no effect. expanded is only read.
func Visible(a analysis.Analysis, expanded IDSet) VisibleGraph {
	const (
		unknown = iota
		visiting
		shown
		hidden
	)
	state := make(map[string]int, len(a.Payload.Nodes))
	roots := make(IDSet, len(a.RootIDs))
	for _, r := range a.RootIDs {
		roots[r] = struct{}{}
	}

	var resolve func(id string) bool
	resolve = func(id string) bool {
		switch state[id] {
		case shown:
			return true
		case hidden, visiting:
			return false
		}
		state[id] = visiting
		ok := roots.Has(id)
		if !ok {
			if parent, has := a.ChildToParent[id]; has {
				ok = expanded.Has(parent) && resolve(parent)
			}
		}
		if ok {
			state[id] = shown
		} else {
			state[id] = hidden
		}
		return ok
	}

	vg := VisibleGraph{
		Nodes:     []topology.Node{},
		DAGEdges:  []topology.Edge{},
		BackEdges: []topology.Edge{},
	}
	pos := make(map[string]int)
	for _, n := range a.Payload.Nodes {
		if !resolve(n.ID) {
			continue
		}
		if i, dup := pos[n.ID]; dup {
			vg.Nodes[i] = n
			continue
		}
		pos[n.ID] = len(vg.Nodes)
		vg.Nodes = append(vg.Nodes, n)
	}

	for _, e := range a.DAGEdges {
		if state[e.SourceID] == shown && state[e.TargetID] == shown {
			vg.DAGEdges = append(vg.DAGEdges, e)
		}
	}
	for _, e := range a.BackEdges {
		if state[e.SourceID] == shown && state[e.TargetID] == shown {
			vg.BackEdges = append(vg.BackEdges, e)
		}
	}
	return vg
}

// Expandable reports whether id has children to reveal.
func Expandable(a analysis.Analysis, id string) bool {
	for _, parent := range a.ChildToParent {
		if parent == id {
			return true
		}
	}
	return false
}

// ExpandAll returns an expand set containing every node with children, which
// makes the whole payload visible.
func ExpandAll(a analysis.Analysis) IDSet {
	s := make(IDSet)
	for _, parent := range a.ChildToParent {
		s[parent] = struct{}{}
	}
	return s
}
