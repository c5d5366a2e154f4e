// Package observability provides hooks for metrics, tracing, and logging.
//
// Library packages stay free of observability backends: the pipeline and the
// cache layer emit events through the hooks registered here, and the
// application decides where they go. Defaults are no-ops.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewLogHooks(logger)
//	    observability.SetPipelineHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    // ... run application
//	}
//
// Instrumented code calls the registered hooks:
//
//	observability.Pipeline().OnAggregateStart(ctx, len(spans))
//	// ... aggregate ...
//	observability.Pipeline().OnAggregateComplete(ctx, nodes, edges, time.Since(start), nil)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the span-to-scene pipeline.
type PipelineHooks interface {
	// Aggregation events
	OnAggregateStart(ctx context.Context, spans int)
	OnAggregateComplete(ctx context.Context, nodes, edges int, duration time.Duration, err error)

	// Analysis events
	OnAnalyzeComplete(ctx context.Context, roots, backEdges int, duration time.Duration)

	// Layout events
	OnLayoutStart(ctx context.Context, visibleNodes int)
	OnLayoutComplete(ctx context.Context, crossings int, duration time.Duration, err error)

	// Transition events
	OnTransition(ctx context.Context, sprouting, collapsing, persisting int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations. keyType is "payload" or
// "layout".
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)

	// OnCacheError records a backend failure that was treated as a miss.
	OnCacheError(ctx context.Context, keyType string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnAggregateStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnAggregateComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnAnalyzeComplete(context.Context, int, int, time.Duration)          {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                                  {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, time.Duration, error)         {}
func (NoopPipelineHooks) OnTransition(context.Context, int, int, int)                         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)     {}
func (NoopCacheHooks) OnCacheError(context.Context, string, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// hookSet is swapped atomically so instrumented code never takes a lock.
type hookSet struct {
	pipeline PipelineHooks
	cache    CacheHooks
}

var registry atomic.Pointer[hookSet]

func init() { Reset() }

func current() *hookSet { return registry.Load() }

// SetPipelineHooks replaces the pipeline hooks. A nil h is ignored. Call it
// at startup, before the pipeline runs.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	for {
		old := current()
		if registry.CompareAndSwap(old, &hookSet{pipeline: h, cache: old.cache}) {
			return
		}
	}
}

// SetCacheHooks replaces the cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	for {
		old := current()
		if registry.CompareAndSwap(old, &hookSet{pipeline: old.pipeline, cache: h}) {
			return
		}
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return current().pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current().cache }

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	registry.Store(&hookSet{pipeline: NoopPipelineHooks{}, cache: NoopCacheHooks{}})
}
