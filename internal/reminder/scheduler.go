package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// OnFireFunc is called once per fired reminder. The scheduler decides when
// to fire; presentation belongs to the callback.
type OnFireFunc func(r Reminder)

// Scheduler evaluates outstanding reminders against wall-clock time on a
// fixed cycle and fires each at most once. Every cycle reloads the store
// from disk: another process or session may have mutated it in between.
type Scheduler struct {
	store    *Store
	onFire   OnFireFunc
	interval time.Duration
	window   time.Duration
	now      func() time.Time

	running  atomic.Bool
	skipNext atomic.Bool
}

// NewScheduler creates a Scheduler. interval defaults to 30s and window
// (the post-fire_at slack inside which a reminder still fires) to 60s.
func NewScheduler(store *Store, onFire OnFireFunc, interval, window time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	return &Scheduler{
		store:    store,
		onFire:   onFire,
		interval: interval,
		window:   window,
		now:      time.Now,
	}
}

// Start runs the evaluation loop until ctx is cancelled. Starting an
// already-running scheduler is a no-op. The stop signal is checked between
// cycles, so shutdown latency is bounded by the interval.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	defer s.running.Store(false)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.cycle() }); err != nil {
		return fmt.Errorf("arm scheduler: %w", err)
	}
	c.Start()
	slog.Info("scheduler: started", "interval", s.interval)

	<-ctx.Done()

	<-c.Stop().Done()
	slog.Info("scheduler: stopped")
	return ctx.Err()
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool { return s.running.Load() }

func (s *Scheduler) cycle() {
	// Backoff after an internal error: sit out one tick, doubling the
	// effective interval for the next evaluation.
	if s.skipNext.CompareAndSwap(true, false) {
		return
	}

	fired, err := s.store.FireDue(s.now(), s.window)
	if err != nil {
		slog.Error("scheduler: cycle failed", "err", err)
		s.skipNext.Store(true)
		return
	}

	for _, r := range fired {
		slog.Info("scheduler: reminder fired", "id", r.ID, "task", r.Task)
		if s.onFire != nil {
			s.onFire(r)
		}
	}
}
