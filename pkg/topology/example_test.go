package topology_test

import (
	"fmt"

	"github.com/matzehuels/agentgraph/pkg/span"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

func ExampleAggregate() {
	spans := []span.Record{
		{SpanID: "1", NodeType: span.KindAgent, NodeLabel: "planner"},
		{SpanID: "2", ParentID: "1", NodeType: span.KindGlue, NodeLabel: "router"},
		{SpanID: "3", ParentID: "2", NodeType: span.KindTool, NodeLabel: "search"},
		{SpanID: "4", ParentID: "2", NodeType: span.KindTool, NodeLabel: "search"},
	}

	p, stats := topology.Aggregate(spans, topology.AggregateOptions{})
	for _, n := range p.Nodes {
		fmt.Printf("%s executions=%d root=%v\n", n.ID, n.ExecutionCount, n.IsRoot)
	}
	for _, e := range p.Edges {
		fmt.Printf("%s calls=%d\n", e.Key(), e.CallCount)
	}
	fmt.Printf("glue=%d dropped=%d\n", stats.Glue, stats.Dropped)
	// Output:
	// Agent::planner executions=1 root=true
	// Tool::search executions=2 root=false
	// Agent::planner->Tool::search calls=2
	// glue=1 dropped=0
}
