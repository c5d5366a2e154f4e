package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/errors"
	"github.com/matzehuels/agentgraph/pkg/pipeline"
	"github.com/matzehuels/agentgraph/pkg/span"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// input is a loaded command argument: either raw spans or an aggregated
// payload.
type input struct {
	spans   []span.Record
	payload *topology.Payload
}

// readInput loads path ("-" for stdin). A JSON object with a top-level
// "nodes" key is a payload; anything else is decoded as spans.
func readInput(path string) (input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return input{}, errors.WrapFile(errors.ErrCodeInvalidInput, err, path)
	}

	if isPayload(data) {
		p, err := topology.ReadPayload(bytes.NewReader(data))
		if err != nil {
			return input{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read payload %s", path)
		}
		return input{payload: &p}, nil
	}

	spans, err := span.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return input{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read spans %s", path)
	}
	return input{spans: spans}, nil
}

func isPayload(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var probe struct {
		Nodes json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return false
	}
	return probe.Nodes != nil
}

// loadPayload returns the payload for path, aggregating spans when needed.
func loadPayload(ctx context.Context, r *pipeline.Runner, path string, opts pipeline.Options) (topology.Payload, bool, error) {
	in, err := readInput(path)
	if err != nil {
		return topology.Payload{}, false, err
	}
	if in.payload != nil {
		loggerFromContext(ctx).Debug("loaded payload", "path", path, "nodes", len(in.payload.Nodes))
		return *in.payload, false, nil
	}
	p, _, hit, err := r.AggregateWithCacheInfo(ctx, in.spans, opts)
	return p, hit, err
}

// windowFlags holds --since/--until as strings so both RFC 3339 timestamps
// and relative durations ("2h") are accepted.
type windowFlags struct {
	since, until string
}

// apply parses the flags into opts relative to now.
func (w windowFlags) apply(opts *pipeline.Options, now time.Time) error {
	var err error
	if opts.Since, err = parseTimeFlag("since", w.since, now); err != nil {
		return err
	}
	if opts.Until, err = parseTimeFlag("until", w.until, now); err != nil {
		return err
	}
	return errors.ValidateWindow(opts.Since, opts.Until)
}

func parseTimeFlag(name, value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, errors.New(errors.ErrCodeInvalidInput,
		"--%s %q: want an RFC 3339 time or a duration like 2h", name, value)
}

// writeOutput writes data to path, or to stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// completeNodeIDs completes --expand style flags with the node ids found in
// the command's input file.
func completeNodeIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 || args[0] == "-" {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	in, err := readInput(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	p := in.payload
	if p == nil {
		agg, _ := topology.Aggregate(in.spans, topology.AggregateOptions{})
		p = &agg
	}
	var out []string
	for _, n := range p.Nodes {
		if !strings.HasPrefix(n.ID, toComplete) {
			continue
		}
		if n.Description != "" {
			out = append(out, n.ID+"\t"+n.Description)
		} else {
			out = append(out, n.ID)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
