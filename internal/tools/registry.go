// Package tools holds the tool registry, the executor that runs tool calls, and
// the helpers tool implementations share (argument decoding, HTTP, truncation).
package tools

import (
	"context"
	"errors"

	"github.com/hattiebot/conduit/internal/core"
)

// Handler runs a tool with arguments that already passed schema validation.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool pairs the model-facing definition with its handler. The definition's
// InputSchema is the only declaration of the tool's input.
type Tool struct {
	Def     core.ToolDefinition
	Handler Handler
}

// Registry is the fixed tool catalogue. It has no mutators; build it once at
// startup with NewRegistry and share it read-only.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry builds a registry, failing on the first duplicate name.
func NewRegistry(ts ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		name := t.Def.Name
		if name == "" {
			return nil, errors.New("tool name is empty")
		}
		if t.Handler == nil {
			return nil, errors.New("tool " + name + " has no handler")
		}
		if t.Def.InputSchema == nil {
			t.Def.InputSchema = core.Object(nil)
		}
		if _, dup := r.byName[name]; dup {
			return nil, &core.DuplicateToolError{Name: name}
		}
		r.byName[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup resolves a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Definitions returns the catalogue in registration order.
func (r *Registry) Definitions() []core.ToolDefinition {
	defs := make([]core.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].Def)
	}
	return defs
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.order) }
