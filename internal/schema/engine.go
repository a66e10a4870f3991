package schema

import "context"

// EngineInput is everything the core hands a reasoning engine for one turn.
// The core never constructs or parses model prompts beyond supplying these
// four inputs.
type EngineInput struct {
	ContextSummary  string            // rendering of the recent session window
	RelevantContext string            // turns matching the current input, or ""
	Capabilities    map[string]string // capability name → description
	UserInput       string
}

// ReasoningEngine produces a response for one user turn. Implementations own
// prompt construction, model selection, and any capability-call loops.
type ReasoningEngine interface {
	Respond(ctx context.Context, in EngineInput) (string, error)
}
