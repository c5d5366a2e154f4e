//go:build !agentgraph_debug

package transition

// violation is a no-op in release builds; callers fall back to the origin.
func violation(string, ...any) {}
