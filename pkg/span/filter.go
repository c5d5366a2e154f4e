package span

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the environment a filter expression is evaluated against. Field names
// in expressions follow the expr tags:
//
//	status == "error" && duration > 500
//	type == "Tool" && label startsWith "web_"
//	session in ["s-1", "s-2"]
type Env struct {
	Type         string    `expr:"type"`
	Label        string    `expr:"label"`
	Status       string    `expr:"status"`
	Error        string    `expr:"error"`
	DurationMs   float64   `expr:"duration"`
	InputTokens  int64     `expr:"input_tokens"`
	OutputTokens int64     `expr:"output_tokens"`
	TraceID      string    `expr:"trace"`
	SessionID    string    `expr:"session"`
	Start        time.Time `expr:"start"`
}

// Filter selects which spans contribute to an aggregation.
// A nil *Filter matches every span. Compiled programs are safe for concurrent use.
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles an expr-lang boolean expression over [Env].
// An empty source returns a nil filter.
func CompileFilter(source string) (*Filter, error) {
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// Match reports whether r satisfies the filter. Evaluation errors count as a
// mismatch.
func (f *Filter) Match(r Record) bool {
	if f == nil {
		return true
	}
	out, err := vm.Run(f.program, envFor(r))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

func envFor(r Record) Env {
	return Env{
		Type:         r.NodeType.String(),
		Label:        r.NodeLabel,
		Status:       string(r.Status),
		Error:        r.ErrorMessage,
		DurationMs:   r.Duration(),
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		TraceID:      r.TraceID,
		SessionID:    r.SessionID,
		Start:        r.StartTime,
	}
}
