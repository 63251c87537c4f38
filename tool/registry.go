package tool

import (
	"fmt"
	"slices"
)

// Registry groups tools by unique name while keeping registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry from tools. Duplicate names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}

	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds t to the registry.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("nil tool")
	}

	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool with empty name")
	}

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("duplicate tool %q", name)
	}

	r.tools[name] = t
	r.order = append(r.order, name)

	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string { return slices.Clone(r.order) }

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }
