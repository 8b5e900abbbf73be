package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dracxi/adbmcpserver/internal/device"
	"github.com/dracxi/adbmcpserver/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// Registry holds the available tools keyed by name. It is safe for
// concurrent use and remembers registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDeviceRegistry creates a registry holding Defaults(ctrl).
func NewDeviceRegistry(ctrl device.Controller) *Registry {
	r := NewRegistry()
	for _, t := range Defaults(ctrl) {
		r.MustRegister(t)
	}
	return r
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return ErrToolNil
	}
	name := tool.Definition().Name
	if name == "" {
		return ErrToolNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)

	logging.ToolsDebug("Registered tool: %s", name)
	return nil
}

// MustRegister registers a tool and panics on error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool: %v", err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute calls a tool by name outside of a protocol session. Device failures
// come back as error results; the returned error is only ErrToolNotFound.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	timer := logging.StartTimer(logging.CategoryTools, "tool "+name)
	defer timer.Stop()

	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return tool.Handle(ctx, req)
}
