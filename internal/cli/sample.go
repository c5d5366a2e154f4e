package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/errors"
	"github.com/matzehuels/agentgraph/pkg/span"
)

// sampleCommand creates the sample command that generates synthetic spans.
func (c *CLI) sampleCommand() *cobra.Command {
	var (
		output string
		opts   span.SampleOptions
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate synthetic multi-agent spans",
		Long: `Generate spans for a small multi-agent system as JSON Lines.

The system has a user-facing orchestrator, Glue routers, a researcher/writer
delegation cycle, a self-retrying tool and LLM leaves. The same seed always
produces the same spans.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spans := span.Sample(opts)

			if output == "" || output == "-" {
				return span.WriteJSONL(os.Stdout, spans)
			}
			if err := span.ExportFile(output, spans); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
			}
			printSuccess("Generated %d spans", len(spans))
			printFile(output)
			printNewline()
			printNextStep("Aggregate", fmt.Sprintf("%s aggregate %s", appName, output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 42, "random seed")
	cmd.Flags().IntVar(&opts.Sessions, "sessions", 5, "number of user sessions")

	return cmd
}
