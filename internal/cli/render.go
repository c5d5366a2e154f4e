package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/pipeline"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// renderCommand creates the render command for drawing the visible graph.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [payload.json|spans.json]",
		Short: "Draw the visible graph as DOT, SVG, PNG or PDF",
		Long: `Render the visible graph with Graphviz.

By default Graphviz ranks the graph itself (dot, left to right). With
--pinned every card is fixed to the position computed by the layout engine
(neato), so renders match 'layout' output and animation frames exactly.
Back-edges are drawn dashed. PNG and PDF require rsvg-convert.`,
		Example: `  agentgraph render payload.json -f svg --expand-all
  agentgraph render payload.json -f svg,png --pinned --detailed -o topology`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.pipelineOptions()
			base.Expanded = opts.Expanded
			base.ExpandAll = opts.ExpandAll
			base.Formats = parseFormats(formatsStr)
			base.Pinned = opts.Pinned
			base.Detailed = opts.Detailed
			base.Scale = opts.Scale
			return c.runRender(cmd.Context(), args[0], output, base)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf, json (comma-separated)")
	cmd.Flags().StringArrayVarP(&opts.Expanded, "expand", "e", nil, "expand a node (repeatable)")
	cmd.Flags().BoolVar(&opts.ExpandAll, "expand-all", false, "expand every node with children")
	cmd.Flags().BoolVar(&opts.Pinned, "pinned", false, "pin nodes to layout engine positions")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show execution metrics and call counts")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")

	_ = cmd.RegisterFlagCompletionFunc("expand", completeNodeIDs)

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	in, err := readInput(input)
	if err != nil {
		return err
	}
	var result *pipeline.Result

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()
	if in.payload != nil {
		result, err = c.renderPayload(ctx, runner, *in.payload, opts)
	} else {
		result, err = runner.Execute(ctx, in.spans, opts)
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(input, output, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeOutput(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
	}

	printSuccess("Render complete")
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(result.Stats.VisibleCount, len(result.Visible.DAGEdges)+len(result.Visible.BackEdges), result.CacheInfo.LayoutHit,
		fmt.Sprintf("%d crossings", result.Stats.Crossings))
	return nil
}

// renderPayload runs analyze → layout → render for an aggregated payload.
func (c *CLI) renderPayload(ctx context.Context, r *pipeline.Runner, p topology.Payload, opts pipeline.Options) (*pipeline.Result, error) {
	a := r.Analyze(ctx, p)
	vg, res, hit, err := r.LayoutWithCacheInfo(ctx, a, opts.ExpandSet(a), opts)
	if err != nil {
		return nil, err
	}
	artifacts, err := r.Render(ctx, vg, res, a, opts)
	if err != nil {
		return nil, err
	}
	return &pipeline.Result{
		Payload:   p,
		Analysis:  a,
		Visible:   vg,
		Layout:    res,
		Artifacts: artifacts,
		Stats:     pipeline.Stats{VisibleCount: len(vg.Nodes), Crossings: res.Crossings},
		CacheInfo: pipeline.CacheInfo{LayoutHit: hit},
	}, nil
}

// outputPaths maps each format to a file. A single format with -o writes to
// exactly that path; otherwise -o (or the input name) is a base path.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := output
	if base == "" {
		base = defaultOutput(input, "")
		if base == "-" {
			base = appName
		}
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
