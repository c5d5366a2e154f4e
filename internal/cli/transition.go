package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/pipeline"
)

// transitionCommand creates the transition command.
func (c *CLI) transitionCommand() *cobra.Command {
	var (
		output   string
		from, to []string
		frames   int
	)

	cmd := &cobra.Command{
		Use:   "transition [payload.json|spans.json]",
		Short: "Sample the animation between two expand sets",
		Long: `Compute the transition between the layout for the --from expand set and
the layout for the --to expand set, and write sampled keyframes as JSON.

Each frame lists every node drawn at that instant with its position, opacity
and phase. Appearing nodes grow out of their nearest visible ancestor and
disappearing nodes shrink back into it.`,
		Example: `  # expand the orchestrator
  agentgraph transition payload.json --to Agent::orchestrator

  # collapse the researcher, 30 frames
  agentgraph transition payload.json \
    --from Agent::orchestrator --from Agent::researcher \
    --to Agent::orchestrator --frames 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			if cmd.Flags().Changed("frames") {
				opts.Frames = frames
			}
			opts.Expanded = append(append([]string(nil), from...), to...)
			return c.runTransition(cmd.Context(), args[0], output, layout.NewIDSet(from...), layout.NewIDSet(to...), opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.frames.json)")
	cmd.Flags().StringArrayVar(&from, "from", nil, "expanded node before the change (repeatable)")
	cmd.Flags().StringArrayVar(&to, "to", nil, "expanded node after the change (repeatable)")
	cmd.Flags().IntVar(&frames, "frames", pipeline.DefaultFrames, "number of frames to sample (default from config)")

	_ = cmd.RegisterFlagCompletionFunc("from", completeNodeIDs)
	_ = cmd.RegisterFlagCompletionFunc("to", completeNodeIDs)

	return cmd
}

func (c *CLI) runTransition(ctx context.Context, input, output string, from, to layout.IDSet, opts pipeline.Options) error {
	// Expanded carries both sets only so they are validated together.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	opts.Expanded = nil

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading topology...")
	spinner.Start()
	p, _, err := loadPayload(ctx, runner, input, opts)
	if err != nil {
		spinner.StopWithError("Transition failed")
		return err
	}
	a := runner.Analyze(ctx, p)

	spinner.SetMessage("Laying out both expand sets...")
	tr, err := runner.Transition(ctx, a, from, to, opts)
	if err != nil {
		spinner.StopWithError("Transition failed")
		return err
	}
	spinner.SetMessage(fmt.Sprintf("Sampling %d frames...", opts.Frames))
	data, err := runner.RenderTransition(tr, opts)
	if err != nil {
		spinner.StopWithError("Transition failed")
		return err
	}
	spinner.Stop()

	if output == "" {
		output = defaultOutput(input, ".frames.json")
	}
	if err := writeOutput(output, append(data, '\n')); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	printSuccess("Transition complete")
	printFile(output)
	printDetail("%d sprouting · %d collapsing · %d persisting · %d frames",
		len(tr.State.SproutingIDs), len(tr.State.CollapsingIDs), len(tr.State.PersistingIDs), opts.Frames)
	return nil
}
