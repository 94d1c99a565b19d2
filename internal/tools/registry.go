package tools

import (
	"fmt"
	"sort"
)

// ProviderSpec is a tool schema in the shape function-calling providers
// expect: name, description, and a JSON-schema parameters object.
type ProviderSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry manages the tools offered to the agent.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry (makes it available for use)
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Unregister removes a tool from the registry
func (r *Registry) Unregister(name string) {
	delete(r.tools, name)
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) Tool {
	return r.tools[name]
}

// Has reports whether a tool with the given name is registered
func (r *Registry) Has(name string) bool {
	return r.tools[name] != nil
}

// All returns every registered tool, sorted by name
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns a sorted list of registered tool names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subset returns a new registry holding only the named tools. Unknown names
// are skipped.
func (r *Registry) Subset(names ...string) *Registry {
	sub := NewRegistry()
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			sub.Register(t)
		}
	}
	return sub
}

// Clone returns an independent registry with the same tools.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for _, t := range r.tools {
		out.Register(t)
	}
	return out
}

// Specs exports provider-format schemas for all registered tools.
// Sorted by name for deterministic ordering across exports.
func (r *Registry) Specs() []ProviderSpec {
	specs := make([]ProviderSpec, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		specs = append(specs, ProviderSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.JSONSchema(),
		})
	}
	return specs
}

// ValidateRequired reports an error naming every required tool that is
// missing from the registry.
func (r *Registry) ValidateRequired(names ...string) error {
	var missing []string
	for _, name := range names {
		if !r.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not registered: %v", missing)
	}
	return nil
}
