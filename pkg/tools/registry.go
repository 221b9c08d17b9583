package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Handler implements one tool. Failures are returned as errors; the
// dispatcher turns them into soft {"error": ...} outcomes.
type Handler func(ctx context.Context, params Params) (any, error)

// Tool is a registered tool: its schema, its handler and the compiled
// parameter validator.
type Tool struct {
	Schema  Schema
	Handler Handler

	validator *gojsonschema.Schema
}

// Registry is an immutable set of tools. It is safe for concurrent use.
type Registry struct {
	tools []*Tool
	index map[string]*Tool
}

// Builder collects registrations and produces a Registry.
type Builder struct {
	tools []*Tool
	index map[string]*Tool
	errs  []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]*Tool)}
}

// Register adds a tool. Problems are collected and reported by Build.
func (b *Builder) Register(name string, handler Handler, schema Schema) *Builder {
	switch {
	case name == "":
		b.errs = append(b.errs, errors.New("tool name is required"))
		return b
	case handler == nil:
		b.errs = append(b.errs, fmt.Errorf("tool %q: handler is nil", name))
		return b
	case schema.Name != "" && schema.Name != name:
		b.errs = append(b.errs, fmt.Errorf("tool %q: schema is named %q", name, schema.Name))
		return b
	}
	if _, dup := b.index[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("tool %q registered twice", name))
		return b
	}

	schema = schema.clone()
	schema.Name = name
	schema.normalize()

	t := &Tool{Schema: schema, Handler: handler}
	b.tools = append(b.tools, t)
	b.index[name] = t
	return b
}

// Build validates every registration, compiles parameter schemas and
// returns the registry. The builder must not be reused afterwards.
func (b *Builder) Build() (*Registry, error) {
	errs := append([]error(nil), b.errs...)

	for _, t := range b.tools {
		if err := t.Schema.check(); err != nil {
			errs = append(errs, fmt.Errorf("tool %q: %w", t.Schema.Name, err))
			continue
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Schema.Parameters.JSONSchema()))
		if err != nil {
			errs = append(errs, fmt.Errorf("tool %q: compile parameter schema: %w", t.Schema.Name, err))
			continue
		}
		t.validator = compiled
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Registry{tools: b.tools, index: b.index}, nil
}

// Resolve looks up a tool by name.
func (r *Registry) Resolve(name string) (*Tool, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Schemas returns copies of every tool schema in registration order.
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Schema.clone()
	}
	return out
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Schema.Name
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
