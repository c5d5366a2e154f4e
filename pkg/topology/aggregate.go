package topology

import (
	"github.com/matzehuels/agentgraph/pkg/span"
)

// AggregateOptions selects the spans that contribute to a payload.
type AggregateOptions struct {
	// Window bounds span start times. The zero window admits every span.
	Window span.Window
	// Filter further restricts contributing spans. Nil admits every span.
	Filter *span.Filter
}

// AggregateStats reports how the input spans were used.
type AggregateStats struct {
	Spans        int // records received
	Contributing int // non-Glue spans that became node executions
	Glue         int // Glue spans (never nodes)
	Excluded     int // outside the window or rejected by the filter
	Duplicates   int // repeated span ids; the first record wins
	Dropped      int // malformed: empty id, unknown type, or unresolvable ancestor chain
}

// Aggregate collapses raw spans into a deduplicated topology.
//
// Every non-Glue span contributes one execution to the node with its logical
// id. Its incoming edge is attributed to the nearest non-Glue ancestor found by
// walking parent ids upward, so pass-through spans never appear in the graph
// while causal reachability is preserved. Edges with the same ordered pair merge
// by summing counts and tokens and unioning session ids.
//
// All spans, including excluded ones, are indexed for ancestor resolution. When
// the resolved ancestor itself falls outside the window or filter, its node is
// still added (with zero executions) so the edge never dangles.
//
// Malformed input never fails the call: spans whose ancestor chain references a
// missing span or loops back on itself are dropped and counted in
// AggregateStats.Dropped. Output order follows first contribution in the input.
func Aggregate(spans []span.Record, opts AggregateOptions) (Payload, AggregateStats) {
	a := newAggregator(spans)
	a.stats.Spans = len(spans)

	for i := range spans {
		rec := &spans[i]
		switch {
		case rec.SpanID == "":
			a.stats.Dropped++
			continue
		case a.index[rec.SpanID] != i:
			a.stats.Duplicates++
			continue
		case rec.IsGlue():
			a.stats.Glue++
			continue
		case !rec.NodeType.Valid():
			a.stats.Dropped++
			continue
		case !opts.Window.Contains(rec.StartTime) || !opts.Filter.Match(*rec):
			a.stats.Excluded++
			continue
		}

		anchor, ok := a.resolve(rec.ParentID)
		if !ok {
			a.stats.Dropped++
			continue
		}

		a.stats.Contributing++
		target := a.addExecution(rec)
		if anchor >= 0 {
			source := a.ensureNode(&spans[anchor])
			a.addCall(source, target, rec)
		}
	}

	p := a.payload()
	p.Window = opts.Window
	return p, a.stats
}

type aggregator struct {
	spans []span.Record
	index map[string]int // span id -> first record index

	nodes        []Node
	nodeIdx      map[string]int
	nodeSessions []map[string]struct{}

	edges        []Edge
	edgeIdx      map[EdgeKey]int
	edgeSessions []map[string]struct{}

	resolved map[string]int // parent id -> anchor record (-1 none, -2 unresolvable)
	stats    AggregateStats
}

const (
	noAnchor     = -1
	unresolvable = -2
)

func newAggregator(spans []span.Record) *aggregator {
	index := make(map[string]int, len(spans))
	for i, r := range spans {
		if r.SpanID == "" {
			continue
		}
		if _, seen := index[r.SpanID]; !seen {
			index[r.SpanID] = i
		}
	}
	return &aggregator{
		spans:    spans,
		index:    index,
		nodeIdx:  make(map[string]int),
		edgeIdx:  make(map[EdgeKey]int),
		resolved: make(map[string]int),
	}
}

// resolve walks from parentID towards the root and returns the record index of
// the nearest ancestor that can be a node. Glue and unknown-type ancestors are
// transparent. It returns noAnchor when the chain ends without one, and false
// when the chain is broken or cyclic.
func (a *aggregator) resolve(parentID string) (int, bool) {
	if parentID == "" {
		return noAnchor, true
	}
	if got, ok := a.resolved[parentID]; ok {
		return got, got != unresolvable
	}

	result := unresolvable
	cur := parentID
	for steps := 0; steps <= len(a.spans); steps++ {
		if cur == "" {
			result = noAnchor
			break
		}
		idx, ok := a.index[cur]
		if !ok {
			break
		}
		rec := &a.spans[idx]
		if rec.NodeType.Valid() && !rec.IsGlue() {
			result = idx
			break
		}
		cur = rec.ParentID
	}

	a.resolved[parentID] = result
	return result, result != unresolvable
}

func (a *aggregator) ensureNode(rec *span.Record) int {
	id := LogicalID(rec.NodeType, rec.NodeLabel)
	if i, ok := a.nodeIdx[id]; ok {
		if a.nodes[i].Description == "" {
			a.nodes[i].Description = rec.Description
		}
		return i
	}
	a.nodeIdx[id] = len(a.nodes)
	a.nodes = append(a.nodes, Node{
		ID:          id,
		Type:        rec.NodeType,
		Label:       rec.NodeLabel,
		Description: rec.Description,
	})
	a.nodeSessions = append(a.nodeSessions, make(map[string]struct{}))
	return len(a.nodes) - 1
}

func (a *aggregator) addExecution(rec *span.Record) int {
	i := a.ensureNode(rec)
	n := &a.nodes[i]
	n.ExecutionCount++
	n.TotalDurationMs += rec.Duration()
	n.InputTokens += rec.InputTokens
	n.OutputTokens += rec.OutputTokens
	if rec.IsError() {
		n.ErrorCount++
	}
	if rec.SessionID != "" {
		a.nodeSessions[i][rec.SessionID] = struct{}{}
	}
	return i
}

func (a *aggregator) addCall(source, target int, child *span.Record) {
	key := EdgeKey{Source: a.nodes[source].ID, Target: a.nodes[target].ID}
	i, ok := a.edgeIdx[key]
	if !ok {
		i = len(a.edges)
		a.edgeIdx[key] = i
		a.edges = append(a.edges, Edge{SourceID: key.Source, TargetID: key.Target})
		a.edgeSessions = append(a.edgeSessions, make(map[string]struct{}))
	}

	e := &a.edges[i]
	e.CallCount++
	e.TotalDurationMs += child.Duration()
	e.InputTokens += child.InputTokens
	e.OutputTokens += child.OutputTokens
	if child.IsError() {
		e.ErrorCount++
		if e.SampleError == "" {
			e.SampleError = child.ErrorMessage
		}
	}
	if child.SessionID != "" {
		a.edgeSessions[i][child.SessionID] = struct{}{}
	}
}

func (a *aggregator) payload() Payload {
	for i := range a.nodes {
		a.nodes[i].UniqueSessions = len(a.nodeSessions[i])
	}
	for i := range a.edges {
		a.edges[i].UniqueSessions = len(a.edgeSessions[i])
	}
	p := Payload{Nodes: a.nodes, Edges: a.edges}
	if p.Nodes == nil {
		p.Nodes = []Node{}
	}
	if p.Edges == nil {
		p.Edges = []Edge{}
	}
	p.DeriveFlags()
	return p
}
