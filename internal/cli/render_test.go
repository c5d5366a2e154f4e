package cli

import (
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "dot", []string{"dot"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and empties", " svg, ,dot ", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		formats []string
		want    map[string]string
	}{
		{
			name:    "single format explicit",
			input:   "spans.jsonl",
			output:  "graph.svg",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "graph.svg"},
		},
		{
			name:    "derived from payload",
			input:   "run.payload.json",
			formats: []string{"svg", "dot"},
			want:    map[string]string{"svg": "run.svg", "dot": "run.dot"},
		},
		{
			name:    "explicit base for many",
			input:   "spans.jsonl",
			output:  "out/topology.svg",
			formats: []string{"svg", "png"},
			want:    map[string]string{"svg": "out/topology.svg", "png": "out/topology.png"},
		},
		{
			name:    "stdin input",
			input:   "-",
			formats: []string{"dot"},
			want:    map[string]string{"dot": "agentgraph.dot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.output, tt.formats)
			for f, want := range tt.want {
				if got[f] != want {
					t.Errorf("outputPaths()[%q] = %q, want %q", f, got[f], want)
				}
			}
		})
	}
}
