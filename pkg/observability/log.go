package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. The CLI registers
// it with --verbose.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnAggregateStart(_ context.Context, spans int) {
	h.logger.Debug("aggregate start", "spans", spans)
}

func (h *LogHooks) OnAggregateComplete(_ context.Context, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("aggregate failed", "duration", d, "err", err)
		return
	}
	h.logger.Debug("aggregate done", "nodes", nodes, "edges", edges, "duration", d)
}

func (h *LogHooks) OnAnalyzeComplete(_ context.Context, roots, backEdges int, d time.Duration) {
	h.logger.Debug("analyze done", "roots", roots, "back_edges", backEdges, "duration", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, visibleNodes int) {
	h.logger.Debug("layout start", "visible", visibleNodes)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, crossings int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("layout failed", "duration", d, "err", err)
		return
	}
	h.logger.Debug("layout done", "crossings", crossings, "duration", d)
}

func (h *LogHooks) OnTransition(_ context.Context, sprouting, collapsing, persisting int) {
	h.logger.Debug("transition", "sprouting", sprouting, "collapsing", collapsing, "persisting", persisting)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnCacheError(_ context.Context, keyType string, err error) {
	h.logger.Warn("cache unavailable", "type", keyType, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
)
