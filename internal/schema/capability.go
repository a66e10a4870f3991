// Package schema contains the core contracts shared across valet packages.
// Concrete implementations live in their respective packages; this package is
// the single canonical source of truth for every interface definition.
package schema

import "context"

// Capability is the interface all assistant-invocable operations satisfy.
// Built-in local capabilities and remotely discovered ones both implement it.
//
// Execute reports failures in its string result rather than its error return
// whenever the failure is something the reasoning engine should relay to the
// user in natural language. The error return is reserved for programming or
// wiring mistakes.
type Capability interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]any) (string, error)
}
