// Package dependency wires core valet services using go.uber.org/dig.
package dependency

import (
	"time"

	"go.uber.org/dig"

	"github.com/emberhq/valet/internal/assistant"
	"github.com/emberhq/valet/internal/bus"
	"github.com/emberhq/valet/internal/config"
	"github.com/emberhq/valet/internal/engine"
	"github.com/emberhq/valet/internal/gateway"
	"github.com/emberhq/valet/internal/memory"
	"github.com/emberhq/valet/internal/reminder"
	"github.com/emberhq/valet/internal/remote"
	"github.com/emberhq/valet/internal/schema"
	"github.com/emberhq/valet/internal/tools"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	assistant *assistant.Assistant
	memory    *memory.Store
	reminders *reminder.Store
	scheduler *reminder.Scheduler
	registry  *remote.Registry
	events    *bus.Bus
	feed      *gateway.Feed
}

func (c *Container) Assistant() *assistant.Assistant { return c.assistant }
func (c *Container) Memory() *memory.Store           { return c.memory }
func (c *Container) Reminders() *reminder.Store      { return c.reminders }
func (c *Container) Scheduler() *reminder.Scheduler  { return c.scheduler }
func (c *Container) Remote() *remote.Registry        { return c.registry }
func (c *Container) Events() *bus.Bus                { return c.events }
func (c *Container) Feed() *gateway.Feed             { return c.feed }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		newEvents,
		newMemoryStore,
		newReminderStore,
		newScheduler,
		newRemoteRegistry,
		newLocalRegistry,
		newEngine,
		newAssistant,
		gateway.NewFeed,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		a *assistant.Assistant,
		mem *memory.Store,
		rem *reminder.Store,
		sched *reminder.Scheduler,
		reg *remote.Registry,
		events *bus.Bus,
		feed *gateway.Feed,
	) {
		result = &Container{
			assistant: a,
			memory:    mem,
			reminders: rem,
			scheduler: sched,
			registry:  reg,
			events:    events,
			feed:      feed,
		}
	})
	return result, err
}

func newEvents() *bus.Bus { return bus.New(64) }

func newMemoryStore(cfg *config.Config) *memory.Store {
	persona := config.LoadPersona(config.PersonaPath())
	return memory.NewStore(cfg.Context.File,
		memory.WithLimits(cfg.Context.MaxHistory, cfg.Context.SessionWindow, cfg.Context.AutosaveEvery),
		memory.WithProfileSeed(persona.DisplayName, persona.Preferences),
	)
}

func newReminderStore(cfg *config.Config) *reminder.Store {
	return reminder.NewStore(cfg.Reminder.File)
}

func newScheduler(cfg *config.Config, store *reminder.Store, events *bus.Bus) *reminder.Scheduler {
	onFire := func(r reminder.Reminder) {
		events.Notify(bus.Notification{
			ReminderID:  r.ID,
			Task:        r.Task,
			Description: r.Description,
			FiredAt:     time.Now(),
		})
	}
	return reminder.NewScheduler(store, onFire,
		time.Duration(cfg.Reminder.IntervalS)*time.Second,
		time.Duration(cfg.Reminder.WindowS)*time.Second,
	)
}

func newRemoteRegistry(cfg *config.Config) *remote.Registry {
	return remote.New(cfg.Remote.BaseURL,
		remote.WithDiscoveryPath(cfg.Remote.DiscoveryPath),
		remote.WithTimeouts(
			time.Duration(cfg.Remote.HealthTimeoutS)*time.Second,
			time.Duration(cfg.Remote.DiscoverTimeoutS)*time.Second,
			time.Duration(cfg.Remote.InvokeTimeoutS)*time.Second,
		),
	)
}

func newLocalRegistry(cfg *config.Config, mem *memory.Store, rem *reminder.Store) *tools.Registry {
	return tools.NewRegistryBuilder().
		With(tools.NewCreateFolderCapability()).
		With(tools.NewCreateFileCapability()).
		With(tools.NewWriteFileCapability()).
		With(tools.NewReadFileCapability()).
		With(tools.NewListDirCapability()).
		With(tools.NewShellCapability(time.Duration(cfg.Tools.ExecTimeoutS)*time.Second)).
		With(tools.NewClockCapability()).
		With(tools.NewWebFetchCapability(cfg.Tools.FetchMaxChars)).
		With(tools.NewCreateReminderCapability(rem)).
		With(tools.NewListRemindersCapability(rem)).
		With(tools.NewCompleteReminderCapability(rem)).
		With(tools.NewSaveContextCapability(mem)).
		With(tools.NewClearContextCapability(mem)).
		With(tools.NewContextStatsCapability(mem)).
		Build()
}

func newEngine(cfg *config.Config) schema.ReasoningEngine {
	persona := config.LoadPersona(config.PersonaPath())
	return engine.NewOpenAIEngine(
		cfg.EngineAPIKey(),
		cfg.Engine.APIBase,
		cfg.Engine.Model,
		persona.DisplayName,
		cfg.Engine.MaxTokens,
		cfg.Engine.Temperature,
	)
}

func newAssistant(
	mem *memory.Store,
	local *tools.Registry,
	reg *remote.Registry,
	eng schema.ReasoningEngine,
	events *bus.Bus,
) *assistant.Assistant {
	return assistant.New(mem, local, reg, eng, events)
}
