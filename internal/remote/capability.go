package remote

import (
	"context"

	"github.com/emberhq/valet/internal/schema"
)

// capability adapts one descriptor to schema.Capability through the
// registry's single generic invoke path. It holds only the descriptor's
// identity: if a later discovery epoch drops the name, Execute reports the
// lookup failure instead of calling a stale endpoint.
type capability struct {
	reg         *Registry
	name        string
	description string
}

func (c *capability) Name() string        { return c.name }
func (c *capability) Description() string { return c.description }

func (c *capability) Execute(ctx context.Context, args map[string]any) (string, error) {
	return c.reg.Invoke(ctx, c.name, args)
}

// Capabilities returns one schema.Capability per registered descriptor,
// all dispatched through Invoke.
func (r *Registry) Capabilities() []schema.Capability {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.Capability, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, &capability{reg: r, name: d.Name, description: d.Description})
	}
	return out
}
