// Package registry defines the MCP tool surface of the binder server: the
// tool schemas, their handlers, and a small discovery index over what got
// registered.
package registry

import (
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// Registry indexes the tool definitions exposed by this server. The mcp-go
// server owns dispatch; this index exists for discovery and bootstrap
// reporting.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]mcp.Tool
}

// New constructs an empty Registry ready for tool population.
func New() *Registry {
	return &Registry{tools: map[string]mcp.Tool{}}
}

// Register stores a tool definition for discovery.
func (r *Registry) Register(tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// Tools returns the registered definitions sorted by name.
func (r *Registry) Tools() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]mcp.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})
	return tools
}
