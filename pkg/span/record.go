package span

import (
	"strings"
	"time"
)

// Kind is the node type a span was recorded under. Agent, Tool and LLM spans
// become topology nodes; Glue spans are structural pass-throughs that never do.
//
// The zero value is KindUnknown, which marks a record whose node_type could not
// be parsed. Such records are skipped by aggregation rather than rejected at
// decode time, so one bad row never fails a whole file.
type Kind int

const (
	KindUnknown Kind = iota
	KindAgent
	KindTool
	KindLLM
	KindGlue
)

var kindNames = [...]string{
	KindUnknown: "Unknown",
	KindAgent:   "Agent",
	KindTool:    "Tool",
	KindLLM:     "LLM",
	KindGlue:    "Glue",
}

// String returns the canonical spelling used in logical node ids ("Agent", "LLM", ...).
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseKind maps a node_type string to a Kind, ignoring case.
// Unrecognised names return KindUnknown.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent":
		return KindAgent
	case "tool":
		return KindTool
	case "llm":
		return KindLLM
	case "glue":
		return KindGlue
	default:
		return KindUnknown
	}
}

// Valid reports whether k is one of the four known node types.
func (k Kind) Valid() bool { return k > KindUnknown && int(k) < len(kindNames) }

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to
// KindUnknown without error.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Status is the completion status of a span.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Record is one span as exported by the telemetry warehouse.
//
// ParentID is empty for spans without a parent. DurationMs may be zero when the
// exporter only recorded timestamps; use [Record.Duration] to read it.
type Record struct {
	SpanID       string    `json:"span_id"`
	ParentID     string    `json:"parent_id,omitempty"`
	TraceID      string    `json:"trace_id,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	NodeType     Kind      `json:"node_type"`
	NodeLabel    string    `json:"node_label"`
	Description  string    `json:"node_description,omitempty"`
	StartTime    time.Time `json:"start_time,omitzero"`
	EndTime      time.Time `json:"end_time,omitzero"`
	DurationMs   float64   `json:"duration_ms,omitempty"`
	Status       Status    `json:"status,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	InputTokens  int64     `json:"input_tokens,omitempty"`
	OutputTokens int64     `json:"output_tokens,omitempty"`
}

// IsGlue reports whether the span is a structural pass-through.
func (r Record) IsGlue() bool { return r.NodeType == KindGlue }

// IsError reports whether the span finished with an error status.
func (r Record) IsError() bool { return strings.EqualFold(string(r.Status), string(StatusError)) }

// Duration returns the span duration in milliseconds, falling back to the
// difference between EndTime and StartTime when DurationMs is unset.
func (r Record) Duration() float64 {
	if r.DurationMs > 0 {
		return r.DurationMs
	}
	if !r.StartTime.IsZero() && r.EndTime.After(r.StartTime) {
		return float64(r.EndTime.Sub(r.StartTime)) / float64(time.Millisecond)
	}
	return 0
}

// Window bounds the spans that contribute to one aggregation. Start is
// inclusive, End is exclusive, and a zero bound is open.
type Window struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// IsZero reports whether both bounds are open.
func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Contains reports whether t falls inside the window. A zero t is only
// contained by an unbounded window.
func (w Window) Contains(t time.Time) bool {
	if w.IsZero() {
		return true
	}
	if t.IsZero() {
		return false
	}
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}
