package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/render/nodelink"
	"github.com/matzehuels/agentgraph/pkg/render/scene"
)

// Render generates output artifacts in the requested formats. Artifacts are
// not cached; they are cheap to rebuild from a cached layout.
func (r *Runner) Render(ctx context.Context, vg layout.VisibleGraph, res layout.Result, a analysis.Analysis, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	dotOpts := nodelink.Options{Detailed: opts.Detailed}
	if opts.Pinned {
		dotOpts.Layout = &res
	}

	var dot string
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if format != FormatJSON && dot == "" {
			dot = nodelink.ToDOT(vg, dotOpts)
		}

		var data []byte
		var err error
		switch format {
		case FormatJSON:
			data, err = scene.RenderJSON(vg, res,
				scene.WithAnalysis(a),
				scene.WithExpanded(opts.ExpandSet(a)))
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot, opts.Pinned)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Pinned, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot, opts.Pinned)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderTransition encodes the frames of tr as JSON.
func (r *Runner) RenderTransition(tr *TransitionResult, opts Options) ([]byte, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	return scene.RenderFramesJSON(tr.State, opts.Frames)
}
