package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberhq/valet/internal/reminder"
)

// ---------------------------------------------------------------------------
// CreateReminderCapability
// ---------------------------------------------------------------------------

type CreateReminderCapability struct {
	store *reminder.Store
}

func NewCreateReminderCapability(store *reminder.Store) *CreateReminderCapability {
	return &CreateReminderCapability{store: store}
}

func (c *CreateReminderCapability) Name() string { return "create_reminder" }

func (c *CreateReminderCapability) Description() string {
	return `Schedule a reminder. Accepts "in N seconds/minutes/hours", "today HH:MM", "tomorrow HH:MM", or "YYYY-MM-DD HH:MM".`
}

func (c *CreateReminderCapability) Execute(_ context.Context, args map[string]any) (string, error) {
	task, ok := stringArg(args, "task")
	if !ok {
		return "Error: task is required", nil
	}
	when, ok := stringArg(args, "when")
	if !ok {
		return "Error: when is required", nil
	}
	description, _ := args["description"].(string)

	r, err := c.store.Add(task, description, when)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Reminder #%d set: %q at %s.", r.ID, r.Task, r.FireAt), nil
}

// ---------------------------------------------------------------------------
// ListRemindersCapability
// ---------------------------------------------------------------------------

type ListRemindersCapability struct {
	store *reminder.Store
}

func NewListRemindersCapability(store *reminder.Store) *ListRemindersCapability {
	return &ListRemindersCapability{store: store}
}

func (c *ListRemindersCapability) Name() string        { return "list_reminders" }
func (c *ListRemindersCapability) Description() string { return "List pending reminders." }

func (c *ListRemindersCapability) Execute(_ context.Context, _ map[string]any) (string, error) {
	active, err := c.store.Active()
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if len(active) == 0 {
		return "No pending reminders.", nil
	}

	var b strings.Builder
	b.WriteString("Pending reminders:\n")
	for _, r := range active {
		fmt.Fprintf(&b, "  #%d %s at %s", r.ID, r.Task, r.FireAt)
		if r.Description != "" {
			fmt.Fprintf(&b, " (%s)", r.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// ---------------------------------------------------------------------------
// CompleteReminderCapability
// ---------------------------------------------------------------------------

type CompleteReminderCapability struct {
	store *reminder.Store
}

func NewCompleteReminderCapability(store *reminder.Store) *CompleteReminderCapability {
	return &CompleteReminderCapability{store: store}
}

func (c *CompleteReminderCapability) Name() string        { return "complete_reminder" }
func (c *CompleteReminderCapability) Description() string { return "Mark a reminder as done by its id." }

func (c *CompleteReminderCapability) Execute(_ context.Context, args map[string]any) (string, error) {
	id, ok := intArg(args, "id")
	if !ok {
		return "Error: id is required", nil
	}
	done, err := c.store.Complete(id)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if !done {
		return fmt.Sprintf("No reminder with id %d.", id), nil
	}
	return fmt.Sprintf("Reminder #%d marked done.", id), nil
}

// intArg extracts an integer argument, tolerating JSON float64 decoding.
func intArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
