package registry

import (
	"fmt"
	"sync"

	"github.com/agriquery/gateway/pkg/tool"
)

// ToolRegistry is the gateway's Tool Registry: register-once, read-many,
// populated at startup and immutable thereafter. It sits on top of
// BaseRegistry for storage and adds the insertion-order tracking List
// needs for deterministic tie-breaking.
type ToolRegistry struct {
	mu    sync.Mutex
	base  *BaseRegistry[*tool.Tool]
	order []string
}

// NewToolRegistry builds an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{base: NewBaseRegistry[*tool.Tool]()}
}

// Register adds t to the registry. Fails if a tool with the same name is
// already present.
func (r *ToolRegistry) Register(t *tool.Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.base.Register(t.Name, t); err != nil {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.order = append(r.order, t.Name)
	return nil
}

// Lookup returns the tool registered under name, if any.
func (r *ToolRegistry) Lookup(name string) (*tool.Tool, bool) {
	return r.base.Get(name)
}

// List returns tools in registration order, optionally filtered to a
// single category.
func (r *ToolRegistry) List(category ...tool.Category) []*tool.Tool {
	r.mu.Lock()
	order := append([]string(nil), r.order...)
	r.mu.Unlock()

	var want tool.Category
	filter := len(category) > 0
	if filter {
		want = category[0]
	}

	out := make([]*tool.Tool, 0, len(order))
	for _, name := range order {
		t, ok := r.base.Get(name)
		if !ok {
			continue
		}
		if filter && t.Category != want {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Handler returns the invoke-function registered under name.
func (r *ToolRegistry) Handler(name string) (tool.Handler, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return t.Handler, true
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	return r.base.Count()
}
