package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [payload.json|spans.json]",
		Short: "Compute positions for the visible graph",
		Long: `Compute a left-to-right layered layout of the visible graph.

Only roots and the children of expanded nodes are visible; pass --expand
once per node id ("Agent::researcher") or --expand-all. The output is a
scene document with card positions, footprints and back-edges that any
renderer can draw.

Results are cached by payload hash, expand set and layout settings.`,
		Example: `  agentgraph layout payload.json --expand Agent::orchestrator
  agentgraph layout spans.jsonl --expand-all -o scene.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.pipelineOptions()
			base.Expanded = opts.Expanded
			base.ExpandAll = opts.ExpandAll
			base.Formats = []string{pipeline.FormatJSON}
			return c.runLayout(cmd.Context(), args[0], output, base)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.scene.json)")
	cmd.Flags().StringArrayVarP(&opts.Expanded, "expand", "e", nil, "expand a node (repeatable)")
	cmd.Flags().BoolVar(&opts.ExpandAll, "expand-all", false, "expand every node with children")

	_ = cmd.RegisterFlagCompletionFunc("expand", completeNodeIDs)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, opts pipeline.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	p, _, err := loadPayload(ctx, runner, input, opts)
	if err != nil {
		return err
	}
	a := runner.Analyze(ctx, p)

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	vg, res, hit, err := runner.LayoutWithCacheInfo(ctx, a, opts.ExpandSet(a), opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	artifacts, err := runner.Render(ctx, vg, res, a, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = defaultOutput(input, ".scene.json")
	}
	if err := writeOutput(output, artifacts[pipeline.FormatJSON]); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(vg.Nodes), len(vg.DAGEdges)+len(vg.BackEdges), hit)
	printDetail("%.0f × %.0f · %d crossings", res.Width, res.Height, res.Crossings)
	printNewline()
	printNextStep("Render", fmt.Sprintf("%s render %s -f svg", appName, input))
	return nil
}
