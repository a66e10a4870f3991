// Package assistant wires memory, capabilities, and the reasoning engine
// into one conversational core.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/emberhq/valet/internal/bus"
	"github.com/emberhq/valet/internal/memory"
	"github.com/emberhq/valet/internal/remote"
	"github.com/emberhq/valet/internal/schema"
	"github.com/emberhq/valet/internal/tools"
)

// Assistant orchestrates a single conversation turn: recall memory, expose
// capabilities, invoke the engine, and record the exchange.
type Assistant struct {
	memory *memory.Store
	local  *tools.Registry
	remote *remote.Registry
	engine schema.ReasoningEngine
	events *bus.Bus
}

func New(
	mem *memory.Store,
	local *tools.Registry,
	rem *remote.Registry,
	engine schema.ReasoningEngine,
	events *bus.Bus,
) *Assistant {
	return &Assistant{
		memory: mem,
		local:  local,
		remote: rem,
		engine: engine,
		events: events,
	}
}

// Bootstrap performs the initial remote discovery. A failure degrades to
// local-only operation rather than aborting startup.
func (a *Assistant) Bootstrap(ctx context.Context) {
	if err := a.remote.Discover(ctx); err != nil {
		slog.Warn("remote capabilities unavailable, running local-only", "error", err)
		return
	}
	slog.Info("remote capabilities ready", "count", a.remote.Count())
}

// Respond handles one user turn and returns the assistant's reply.
func (a *Assistant) Respond(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty input")
	}

	a.events.SetState(schema.StateProcessing)
	defer a.events.SetState(schema.StateIdle)

	// System commands bypass the engine entirely.
	if reply, handled := a.systemCommand(ctx, input); handled {
		a.events.SetState(schema.StateSpeaking)
		return reply, nil
	}

	reply, err := a.engine.Respond(ctx, schema.EngineInput{
		ContextSummary:  a.memory.ContextSummary(),
		RelevantContext: a.memory.RelevantContext(input),
		Capabilities:    a.Capabilities(),
		UserInput:       input,
	})
	if err != nil {
		return "", fmt.Errorf("engine: %w", err)
	}

	a.events.SetState(schema.StateSpeaking)
	a.memory.RecordTurn(input, reply, classifyContext(input))
	return reply, nil
}

// systemCommand intercepts capability-management phrases.
func (a *Assistant) systemCommand(ctx context.Context, input string) (string, bool) {
	switch strings.ToLower(input) {
	case "tool status", "check tools", "list tools":
		return a.StatusReport(), true
	case "refresh tools", "reconnect tools", "retry remote":
		return a.RefreshCapabilities(ctx), true
	}
	return "", false
}

// Capabilities returns the merged name → description map of everything the
// assistant can currently do, local and remote.
func (a *Assistant) Capabilities() map[string]string {
	merged := a.local.List()
	if a.remote.Status() == remote.StatusReady {
		for name, desc := range a.remote.ListDescriptors() {
			if _, taken := merged[name]; taken {
				continue
			}
			merged[name] = desc
		}
	}
	return merged
}

// Invoke dispatches a capability by name, preferring local over remote.
func (a *Assistant) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	if a.local.Get(name) != nil {
		return a.local.Execute(ctx, name, args)
	}
	return a.remote.Invoke(ctx, name, args)
}

// RefreshCapabilities re-runs remote discovery on demand.
func (a *Assistant) RefreshCapabilities(ctx context.Context) string {
	if err := a.remote.Discover(ctx); err != nil {
		return fmt.Sprintf("Could not reach the remote capability server: %v. Local capabilities remain available.", err)
	}
	return fmt.Sprintf("Remote capabilities refreshed: %d operations available.", a.remote.Count())
}

// StatusReport summarizes the capability surface for the user.
func (a *Assistant) StatusReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Local capabilities: %d\n", a.local.Count())

	switch a.remote.Status() {
	case remote.StatusReady:
		fmt.Fprintf(&b, "Remote capabilities: %d (server ready)\n", a.remote.Count())
	case remote.StatusUnavailable:
		b.WriteString("Remote capabilities: unavailable (server unreachable)\n")
	case remote.StatusDiscovering:
		b.WriteString("Remote capabilities: discovery in progress\n")
	default:
		b.WriteString("Remote capabilities: not yet discovered\n")
	}

	names := make([]string, 0)
	for n := range a.Capabilities() {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(&b, "Available: %s", strings.Join(names, ", "))
	return b.String()
}

// classifyContext tags a turn for later relevance retrieval.
func classifyContext(input string) string {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "remind") {
		return "reminder"
	}
	for _, kw := range []string{"create", "write", "read", "execute", "list"} {
		if strings.Contains(lower, kw) {
			return "task"
		}
	}
	return "general"
}
