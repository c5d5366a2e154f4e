package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/errors"
	"github.com/matzehuels/agentgraph/pkg/pipeline"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// aggregateCommand creates the aggregate command.
func (c *CLI) aggregateCommand() *cobra.Command {
	var (
		output string
		filter string
		window windowFlags
	)

	cmd := &cobra.Command{
		Use:   "aggregate [spans.json]",
		Short: "Collapse raw spans into a topology payload",
		Long: `Collapse raw telemetry spans into a deduplicated call topology.

Every non-Glue span contributes one execution to the node "{type}::{label}".
Glue spans are transparent: calls are attributed to the nearest non-Glue
ancestor. Input may be a JSON array, a {"spans": [...]} envelope or JSON
Lines; "-" reads stdin.

Select spans with --since/--until (RFC 3339 or a duration before now) and
--filter, an expression over span fields:

  type == "Tool" && duration > 500
  status == "error" || label startsWith "web_"`,
		Example: `  agentgraph aggregate spans.jsonl -o payload.json
  agentgraph aggregate spans.jsonl --since 2h --filter 'status == "error"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			opts.Filter = filter
			if err := window.apply(&opts, time.Now()); err != nil {
				return err
			}
			return c.runAggregate(cmd.Context(), args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.payload.json)")
	cmd.Flags().StringVar(&filter, "filter", "", "span filter expression")
	cmd.Flags().StringVar(&window.since, "since", "", "only spans starting at or after this time")
	cmd.Flags().StringVar(&window.until, "until", "", "only spans starting before this time")

	return cmd
}

func (c *CLI) runAggregate(ctx context.Context, input, output string, opts pipeline.Options) error {
	in, err := readInput(input)
	if err != nil {
		return err
	}
	if in.payload != nil {
		return fmt.Errorf("%s is already a payload", input)
	}

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Aggregating %d spans...", len(in.spans)))
	spinner.Start()
	p, stats, hit, err := runner.AggregateWithCacheInfo(ctx, in.spans, opts)
	if err != nil {
		spinner.StopWithError("Aggregation failed")
		return err
	}
	spinner.Stop()

	if output == "" {
		output = defaultOutput(input, ".payload.json")
	}
	if output == "-" {
		return topology.WritePayload(p, os.Stdout)
	}
	if err := topology.WritePayloadFile(p, output); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
	}

	printSuccess("Aggregation complete")
	printFile(output)
	printStats(len(p.Nodes), len(p.Edges), hit)
	if !hit && (stats.Glue > 0 || stats.Dropped > 0 || stats.Excluded > 0) {
		printDetail("%d glue · %d excluded · %d dropped · %d duplicates",
			stats.Glue, stats.Excluded, stats.Dropped, stats.Duplicates)
	}
	printNewline()
	printNextStep("Explore", fmt.Sprintf("%s explore %s", appName, output))
	return nil
}

// defaultOutput derives "<base><suffix>" from input, or stdout for stdin.
func defaultOutput(input, suffix string) string {
	if input == "-" {
		return "-"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".payload")
	return base + suffix
}
