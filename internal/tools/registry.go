// Package tools provides the built-in local capabilities: file management,
// guarded shell execution, web page fetching, clock, reminders, and context
// management. They satisfy the same Capability contract as remotely
// discovered operations, so the assistant sees one uniform set.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/emberhq/valet/internal/schema"
)

// Registry holds the named local capabilities.
type Registry struct {
	caps map[string]schema.Capability
}

// RegistryBuilder assembles a Registry.
type RegistryBuilder struct {
	caps map[string]schema.Capability
}

func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{caps: map[string]schema.Capability{}}
}

// With registers a capability. Later registrations win on name collision.
func (b *RegistryBuilder) With(c schema.Capability) *RegistryBuilder {
	b.caps[c.Name()] = c
	return b
}

func (b *RegistryBuilder) Build() *Registry {
	caps := make(map[string]schema.Capability, len(b.caps))
	for k, v := range b.caps {
		caps[k] = v
	}
	return &Registry{caps: caps}
}

// Get returns the named capability, or nil.
func (r *Registry) Get(name string) schema.Capability {
	return r.caps[name]
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int { return len(r.caps) }

// List returns the name → description mapping for prompt construction.
func (r *Registry) List() map[string]string {
	out := make(map[string]string, len(r.caps))
	for name, c := range r.caps {
		out[name] = c.Description()
	}
	return out
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.caps))
	for n := range r.caps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute dispatches to the named capability.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	c := r.caps[name]
	if c == nil {
		return "", fmt.Errorf("unknown local capability %q", name)
	}
	return c.Execute(ctx, args)
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok && v != ""
}
