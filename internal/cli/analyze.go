package cli

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "analyze [payload.json|spans.json]",
		Short: "Report roots, depths and cycle-closing edges",
		Long: `Analyze a topology: choose traversal roots, classify every edge as a DAG
edge or a back-edge (one that closes a cycle) and assign breadth-first depths.

Without -o a summary table is printed; with -o the full analysis is written
as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write analysis JSON to file (\"-\" for stdout)")

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, input, output string) error {
	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	p, hit, err := loadPayload(ctx, runner, input, c.pipelineOptions())
	if err != nil {
		return err
	}
	a := runner.Analyze(ctx, p)
	prog.done("analysis finished", "roots", len(a.RootIDs), "back_edges", len(a.BackEdges), "cached", hit)

	if output != "" {
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return err
		}
		if err := writeOutput(output, append(data, '\n')); err != nil {
			return err
		}
		if output != "-" {
			printSuccess("Analysis complete")
			printFile(output)
		}
		return nil
	}

	printAnalysis(a)
	return nil
}

// printAnalysis renders roots, back-edges and a depth table.
func printAnalysis(a analysis.Analysis) {
	printKeyValue("Nodes", strconv.Itoa(len(a.Payload.Nodes)))
	printKeyValue("Edges", fmt.Sprintf("%d (%d back)", len(a.DAGEdges)+len(a.BackEdges), len(a.BackEdges)))
	printKeyValue("Roots", fmt.Sprint(a.RootIDs))
	for _, e := range a.BackEdges {
		printDetail("cycle %s %s %s (%d calls)", e.SourceID, iconArrow, e.TargetID, e.CallCount)
	}
	printNewline()

	nodes := slices.Clone(a.Payload.Nodes)
	slices.SortStableFunc(nodes, func(x, y topology.Node) int {
		return cmp.Compare(depthOf(a, x.ID), depthOf(a, y.ID))
	})

	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		depth := "—"
		if d, ok := a.NodeDepth[n.ID]; ok {
			depth = strconv.Itoa(d)
		}
		parent := a.ChildToParent[n.ID]
		if parent == "" {
			parent = "—"
		}
		rows = append(rows, []string{depth, n.ID, strconv.Itoa(n.ExecutionCount), strconv.Itoa(n.ErrorCount), parent})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Depth", "Node", "Runs", "Errors", "Parent").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(nodes) {
				return lipgloss.NewStyle()
			}
			switch {
			case col == 1:
				return kindStyle(nodes[row].Type)
			case col == 3 && nodes[row].ErrorCount > 0:
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			return lipgloss.NewStyle()
		})
	fmt.Println(t.Render())
}

func depthOf(a analysis.Analysis, id string) int {
	if d, ok := a.NodeDepth[id]; ok {
		return d
	}
	return math.MaxInt
}
