// Package bus decouples the assistant core from its presentation adapters.
//
// The core pushes state transitions and fired reminder notifications; the
// gateway (or a CLI loop) consumes them and decides how to render. Both
// directions use buffered channels so the core never blocks on a slow or
// absent consumer.
package bus

import (
	"time"

	"github.com/emberhq/valet/internal/schema"
)

// Notification is one fired reminder, ready for a sink to render or announce.
type Notification struct {
	ReminderID  int64     `json:"reminder_id"`
	Task        string    `json:"task"`
	Description string    `json:"description,omitempty"`
	FiredAt     time.Time `json:"fired_at"`
}

// Bus carries events from the core to front-end consumers.
type Bus struct {
	States        chan schema.State
	Notifications chan Notification
}

func New(bufSize int) *Bus {
	return &Bus{
		States:        make(chan schema.State, bufSize),
		Notifications: make(chan Notification, bufSize),
	}
}

// SetState publishes a state transition. If no consumer is keeping up the
// oldest pending transition is dropped; front ends only care about the
// latest state.
func (b *Bus) SetState(s schema.State) {
	for {
		select {
		case b.States <- s:
			return
		default:
			select {
			case <-b.States:
			default:
			}
		}
	}
}

// Notify publishes a fired reminder. Blocks only when the buffer is full:
// notifications, unlike states, must not be dropped.
func (b *Bus) Notify(n Notification) {
	b.Notifications <- n
}
