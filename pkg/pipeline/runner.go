package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/cache"
	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/observability"
	"github.com/matzehuels/agentgraph/pkg/span"
	"github.com/matzehuels/agentgraph/pkg/topology"
	"github.com/matzehuels/agentgraph/pkg/transition"
)

// Cache key types reported to observability hooks.
const (
	keyTypePayload = "payload"
	keyTypeLayout  = "layout"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Execute runs aggregate → analyze → layout → render with caching.
func (r *Runner) Execute(ctx context.Context, spans []span.Record, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	start := time.Now()
	p, stats, hit, err := r.AggregateWithCacheInfo(ctx, spans, opts)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	result.Payload = p
	result.Stats.Aggregate = stats
	result.Stats.NodeCount = len(p.Nodes)
	result.Stats.EdgeCount = len(p.Edges)
	result.Stats.AggregateTime = time.Since(start)
	result.CacheInfo.PayloadHit = hit
	result.PayloadHash = HashPayload(p)

	start = time.Now()
	a := r.Analyze(ctx, p)
	result.Analysis = a
	result.Stats.BackEdges = len(a.BackEdges)
	result.Stats.AnalyzeTime = time.Since(start)

	start = time.Now()
	vg, res, hit, err := r.LayoutWithCacheInfo(ctx, a, opts.ExpandSet(a), opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Visible = vg
	result.Layout = res
	result.Stats.VisibleCount = len(vg.Nodes)
	result.Stats.Crossings = res.Crossings
	result.Stats.LayoutTime = time.Since(start)
	result.CacheInfo.LayoutHit = hit

	start = time.Now()
	artifacts, err := r.Render(ctx, vg, res, a, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Aggregate
// =============================================================================

// AggregateWithCacheInfo builds the payload for spans and reports whether it
// came from the cache. Stats are zero on a cache hit.
func (r *Runner) AggregateWithCacheInfo(ctx context.Context, spans []span.Record, opts Options) (topology.Payload, topology.AggregateStats, bool, error) {
	if err := opts.ValidateForAggregate(); err != nil {
		return topology.Payload{}, topology.AggregateStats{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnAggregateStart(ctx, len(spans))
	start := time.Now()

	key := r.Keyer.PayloadKey(HashSpans(spans), cache.PayloadKeyOpts{
		Since:  opts.Since,
		Until:  opts.Until,
		Filter: opts.Filter,
	})

	if !opts.Refresh {
		if data, ok := r.cacheGet(ctx, keyTypePayload, key); ok {
			p, err := topology.ReadPayload(bytes.NewReader(data))
			if err == nil {
				hooks.OnAggregateComplete(ctx, len(p.Nodes), len(p.Edges), time.Since(start), nil)
				r.Logger.Info("loaded cached topology",
					"nodes", len(p.Nodes),
					"edges", len(p.Edges))
				return p, topology.AggregateStats{}, true, nil
			}
			r.Logger.Debug("discarding unreadable cache entry", "type", keyTypePayload, "err", err)
		}
	}

	p, stats := topology.Aggregate(spans, opts.AggregateOptions())
	hooks.OnAggregateComplete(ctx, len(p.Nodes), len(p.Edges), time.Since(start), nil)

	r.Logger.Info("aggregated spans",
		"spans", stats.Spans,
		"nodes", len(p.Nodes),
		"edges", len(p.Edges),
		"duration", time.Since(start))
	if stats.Dropped > 0 || stats.Duplicates > 0 {
		r.Logger.Warn("skipped malformed spans",
			"dropped", stats.Dropped,
			"duplicates", stats.Duplicates)
	}
	r.Logger.Debug("aggregation details",
		"glue", stats.Glue,
		"excluded", stats.Excluded,
		"contributing", stats.Contributing)

	if data, err := topology.MarshalPayload(p); err == nil {
		r.cacheSet(ctx, keyTypePayload, key, data)
	}
	return p, stats, false, nil
}

// Aggregate is a convenience wrapper that calls AggregateWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Aggregate(ctx context.Context, spans []span.Record, opts Options) (topology.Payload, error) {
	p, _, _, err := r.AggregateWithCacheInfo(ctx, spans, opts)
	return p, err
}

// =============================================================================
// Analyze
// =============================================================================

// Analyze runs topology analysis. It is cheap enough that results are not
// cached.
func (r *Runner) Analyze(ctx context.Context, p topology.Payload) analysis.Analysis {
	start := time.Now()
	a := analysis.Analyze(p)
	observability.Pipeline().OnAnalyzeComplete(ctx, len(a.RootIDs), len(a.BackEdges), time.Since(start))

	r.Logger.Debug("analyzed topology",
		"roots", a.RootIDs,
		"back_edges", len(a.BackEdges),
		"dag_edges", len(a.DAGEdges))
	return a
}

// =============================================================================
// Layout
// =============================================================================

// LayoutWithCacheInfo resolves the visible graph for expanded and computes
// its layout, reporting whether the layout came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, a analysis.Analysis, expanded layout.IDSet, opts Options) (layout.VisibleGraph, layout.Result, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return layout.VisibleGraph{}, layout.Result{}, false, err
	}

	vg := layout.Visible(a, expanded)
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(vg.Nodes))
	start := time.Now()

	key := r.Keyer.LayoutKey(HashPayload(a.Payload), cache.LayoutKeyOpts{
		Expanded:   expanded.Sorted(),
		ConfigHash: hashLayoutConfig(opts.Layout),
	})

	if !opts.Refresh {
		if data, ok := r.cacheGet(ctx, keyTypeLayout, key); ok {
			var res layout.Result
			if err := json.Unmarshal(data, &res); err == nil {
				hooks.OnLayoutComplete(ctx, res.Crossings, time.Since(start), nil)
				return vg, res, true, nil
			}
		}
	}

	res := layout.NewEngine(opts.Layout).Layout(vg.Nodes, vg.DAGEdges, a.NodeDepth)
	hooks.OnLayoutComplete(ctx, res.Crossings, time.Since(start), nil)

	r.Logger.Info("computed layout",
		"visible", len(vg.Nodes),
		"crossings", res.Crossings,
		"duration", time.Since(start))

	if data, err := json.Marshal(res); err == nil {
		r.cacheSet(ctx, keyTypeLayout, key, data)
	}
	return vg, res, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Layout(ctx context.Context, a analysis.Analysis, expanded layout.IDSet, opts Options) (layout.VisibleGraph, layout.Result, error) {
	vg, res, _, err := r.LayoutWithCacheInfo(ctx, a, expanded, opts)
	return vg, res, err
}

// =============================================================================
// Transition
// =============================================================================

// TransitionResult holds both endpoints of an expand/collapse change.
type TransitionResult struct {
	From, To    layout.Result
	FromVisible layout.VisibleGraph
	ToVisible   layout.VisibleGraph
	State       *transition.State
}

// Transition lays out both expand sets and computes the animation between
// them.
func (r *Runner) Transition(ctx context.Context, a analysis.Analysis, from, to layout.IDSet, opts Options) (*TransitionResult, error) {
	fromVG, fromRes, err := r.Layout(ctx, a, from, opts)
	if err != nil {
		return nil, err
	}
	toVG, toRes, err := r.Layout(ctx, a, to, opts)
	if err != nil {
		return nil, err
	}

	s := transition.Compute(fromRes.Positions, toRes.Positions, fromVG.IDs(), toVG.IDs(), a.ChildToParent)
	observability.Pipeline().OnTransition(ctx, len(s.SproutingIDs), len(s.CollapsingIDs), len(s.PersistingIDs))

	r.Logger.Info("computed transition",
		"sprouting", len(s.SproutingIDs),
		"collapsing", len(s.CollapsingIDs),
		"persisting", len(s.PersistingIDs))

	return &TransitionResult{
		From:        fromRes,
		To:          toRes,
		FromVisible: fromVG,
		ToVisible:   toVG,
		State:       s,
	}, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// =============================================================================
// Cache helpers
// =============================================================================

// cacheGet treats backend failures as misses.
func (r *Runner) cacheGet(ctx context.Context, keyType, key string) ([]byte, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		hooks.OnCacheError(ctx, keyType, err)
		r.Logger.Warn("cache read failed", "type", keyType, "err", err)
		return nil, false
	}
	if !hit {
		hooks.OnCacheMiss(ctx, keyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) cacheSet(ctx context.Context, keyType, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		observability.Cache().OnCacheError(ctx, keyType, err)
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// HashSpans returns the content hash of a span set.
func HashSpans(spans []span.Record) string {
	var buf bytes.Buffer
	if err := span.WriteJSONL(&buf, spans); err != nil {
		return ""
	}
	return cache.Hash(buf.Bytes())
}

// HashPayload returns the content hash of a payload.
func HashPayload(p topology.Payload) string {
	data, err := topology.MarshalPayload(p)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

func hashLayoutConfig(c layout.Config) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
