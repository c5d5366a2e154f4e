// Package pipeline runs the span → topology → layout → render pipeline.
//
// The CLI and any embedding program share this package so that caching,
// validation and logging behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Aggregate: collapse raw spans into a deduplicated [topology.Payload]
//  2. Analyze: pick roots, classify back-edges, assign depths
//  3. Layout: resolve the visible graph for an expand set and place it
//  4. Render: produce scene JSON, DOT, SVG, PNG or PDF
//
// Aggregation and layout results are cached by content hash. A
// [transition.State] between two expand sets is computed from two layouts.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, spans, pipeline.Options{
//	    Expanded: []string{"Agent::orchestrator"},
//	    Formats:  []string{pipeline.FormatSVG},
//	})
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/errors"
	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/span"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFrames is the number of frames sampled for a transition.
	DefaultFrames = 12

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultTTL is how long cached payloads and layouts live.
	DefaultTTL = 7 * 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Aggregation options
	Since  time.Time `json:"since,omitzero"`
	Until  time.Time `json:"until,omitzero"`
	Filter string    `json:"filter,omitempty"` // expr-lang expression over span fields
	// Refresh skips cache reads but still writes fresh results.
	Refresh bool `json:"refresh,omitempty"`

	// Layout options
	Expanded  []string      `json:"expanded,omitempty"`
	ExpandAll bool          `json:"expand_all,omitempty"`
	Layout    layout.Config `json:"-"`

	// Transition options
	Frames int `json:"frames,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Pinned   bool     `json:"pinned,omitempty"`   // pin Graphviz output to engine positions
	Detailed bool     `json:"detailed,omitempty"` // metrics in labels and edge call counts
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	filter    *span.Filter
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Payload     topology.Payload
	PayloadHash string
	Analysis    analysis.Analysis
	Visible     layout.VisibleGraph
	Layout      layout.Result
	Artifacts   map[string][]byte
	Stats       Stats
	CacheInfo   CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Aggregate    topology.AggregateStats
	NodeCount    int
	EdgeCount    int
	VisibleCount int
	BackEdges    int
	Crossings    int

	AggregateTime time.Duration
	AnalyzeTime   time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PayloadHit bool
	LayoutHit  bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every option and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForAggregate(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForAggregate checks the window and compiles the filter.
func (o *Options) ValidateForAggregate() error {
	if err := errors.ValidateWindow(o.Since, o.Until); err != nil {
		return err
	}
	if o.filter == nil && o.Filter != "" {
		f, err := span.CompileFilter(o.Filter)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFilter, err, "invalid filter")
		}
		o.filter = f
	}
	o.setLogger()
	return nil
}

// ValidateForLayout checks expand ids and fills layout defaults.
func (o *Options) ValidateForLayout() error {
	for _, id := range o.Expanded {
		if err := errors.ValidateLogicalID(id); err != nil {
			return err
		}
	}
	o.Layout = o.Layout.WithDefaults()
	if o.Frames == 0 {
		o.Frames = DefaultFrames
	}
	if o.Frames < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "frames must be at least 2, got %d", o.Frames)
	}
	o.setLogger()
	return nil
}

// ValidateForRender checks formats and fills render defaults.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	o.setLogger()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// AggregateOptions returns the aggregation parameters. Call after
// [Options.ValidateForAggregate].
func (o *Options) AggregateOptions() topology.AggregateOptions {
	return topology.AggregateOptions{
		Window: span.Window{Start: o.Since, End: o.Until},
		Filter: o.filter,
	}
}

// ExpandSet returns the expand set for a, honouring ExpandAll.
func (o *Options) ExpandSet(a analysis.Analysis) layout.IDSet {
	if o.ExpandAll {
		return layout.ExpandAll(a)
	}
	return layout.NewIDSet(o.Expanded...)
}

// String summarises the options for logs.
func (o *Options) String() string {
	return fmt.Sprintf("filter=%q expanded=%d formats=%v", o.Filter, len(o.Expanded), o.Formats)
}
