package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberhq/valet/internal/memory"
)

// ---------------------------------------------------------------------------
// SaveContextCapability
// ---------------------------------------------------------------------------

type SaveContextCapability struct {
	store *memory.Store
}

func NewSaveContextCapability(store *memory.Store) *SaveContextCapability {
	return &SaveContextCapability{store: store}
}

func (c *SaveContextCapability) Name() string        { return "save_context" }
func (c *SaveContextCapability) Description() string { return "Persist conversation memory to disk now." }

func (c *SaveContextCapability) Execute(_ context.Context, _ map[string]any) (string, error) {
	if err := c.store.Save(); err != nil {
		return fmt.Sprintf("Error saving context: %v", err), nil
	}
	return "Context saved.", nil
}

// ---------------------------------------------------------------------------
// ClearContextCapability
// ---------------------------------------------------------------------------

type ClearContextCapability struct {
	store *memory.Store
}

func NewClearContextCapability(store *memory.Store) *ClearContextCapability {
	return &ClearContextCapability{store: store}
}

func (c *ClearContextCapability) Name() string { return "clear_context" }

func (c *ClearContextCapability) Description() string {
	return "Clear the current conversation session. Learned preferences are kept."
}

func (c *ClearContextCapability) Execute(_ context.Context, _ map[string]any) (string, error) {
	c.store.ClearSession()
	return "Session context cleared.", nil
}

// ---------------------------------------------------------------------------
// ContextStatsCapability
// ---------------------------------------------------------------------------

type ContextStatsCapability struct {
	store *memory.Store
}

func NewContextStatsCapability(store *memory.Store) *ContextStatsCapability {
	return &ContextStatsCapability{store: store}
}

func (c *ContextStatsCapability) Name() string        { return "context_stats" }
func (c *ContextStatsCapability) Description() string { return "Show conversation memory statistics." }

func (c *ContextStatsCapability) Execute(_ context.Context, _ map[string]any) (string, error) {
	st := c.store.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: %d turns this session.\n", st.SessionID, st.SessionTurns)
	fmt.Fprintf(&b, "Addressing user as: %s\n", st.DisplayName)
	if len(st.RecentCommands) > 0 {
		fmt.Fprintf(&b, "Frequent commands: %s\n", strings.Join(st.RecentCommands, ", "))
	}
	if st.LastInteraction != "" {
		fmt.Fprintf(&b, "Last interaction: %s\n", st.LastInteraction)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
