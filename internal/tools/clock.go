package tools

import (
	"context"
	"time"
)

// ClockCapability reports the current local date and time.
type ClockCapability struct {
	now func() time.Time
}

func NewClockCapability() *ClockCapability {
	return &ClockCapability{now: time.Now}
}

func (c *ClockCapability) Name() string        { return "current_time" }
func (c *ClockCapability) Description() string { return "Get the current date and time." }

func (c *ClockCapability) Execute(_ context.Context, _ map[string]any) (string, error) {
	return c.now().Format("Monday, January 2, 2006 at 15:04:05"), nil
}
