// Package tool implements the tool port consumed by the executor: a Tool
// interface, a case-insensitive read-only Registry, a FunctionTool adapter for
// plain Go functions and an LRU-backed caching wrapper.
package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentloop/core"
)

// Tool defines the capability an agent can invoke by name.
//
// The description is rendered into the agent prompt and must be non-empty;
// agents reject tools without one at construction time.
//
// Tool implementations should:
//   - Provide short, unambiguous names (the model must reproduce them)
//   - Describe when to use the tool and what input it expects
//   - Respect context cancellation
//   - Be safe for concurrent use if shared between concurrent calls
type Tool interface {
	// Name returns the identifier the model uses to select the tool.
	Name() string

	// Description returns a human-readable description for the prompt.
	Description() string

	// Call executes the tool with the raw text input produced by the model.
	Call(ctx context.Context, input string) (string, error)

	// ReturnDirect reports whether the tool output becomes the final answer
	// without another round of reasoning.
	ReturnDirect() bool
}

// Registry resolves tools by name, case-insensitively. It is immutable after
// construction and therefore safe for concurrent lookups.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewRegistry builds a registry from the given tools. It fails with a
// *core.ConfigError if a tool is nil, has an empty name or two tools share a
// name when compared case-insensitively.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:  make([]Tool, 0, len(tools)),
		byName: make(map[string]Tool, len(tools)),
	}

	for i, t := range tools {
		if t == nil {
			return nil, core.NewConfigError("tools", fmt.Sprintf("tool at index %d is nil", i))
		}

		name := strings.TrimSpace(t.Name())
		if name == "" {
			return nil, core.NewConfigError("tools", fmt.Sprintf("tool at index %d has an empty name", i))
		}

		key := strings.ToLower(name)
		if _, exists := r.byName[key]; exists {
			return nil, core.NewConfigError("tools", fmt.Sprintf("duplicate tool name %q", name))
		}

		r.byName[key] = t
		r.tools = append(r.tools, t)
	}

	return r, nil
}

// Lookup returns the tool registered under name (case-insensitive).
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }
