//go:build agentgraph_debug

package transition

import "fmt"

func violation(format string, args ...any) {
	panic(fmt.Sprintf("transition: "+format, args...))
}
