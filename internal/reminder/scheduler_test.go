package reminder

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collector records fired reminders.
type collector struct {
	mu    sync.Mutex
	fired []Reminder
}

func (c *collector) onFire(r Reminder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fired = append(c.fired, r)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fired)
}

func startScheduler(t *testing.T, s *Scheduler) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Start(ctx) }()
	// Give Start() a moment to arm the cron entry.
	time.Sleep(20 * time.Millisecond)
	return cancel
}

func TestScheduler_FiresOnceAcrossCycles(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "reminders.json"))
	now := time.Now()
	if _, err := store.Add("overdue", "", now.Add(-30*time.Second).Format(TimeLayout)); err != nil {
		t.Fatal(err)
	}

	var c collector
	sched := NewScheduler(store, c.onFire, time.Second, time.Minute)
	cancel := startScheduler(t, sched)
	defer cancel()

	// Several cycles pass; the reminder must fire exactly once.
	time.Sleep(2500 * time.Millisecond)
	if n := c.count(); n != 1 {
		t.Fatalf("expected exactly 1 firing, got %d", n)
	}

	all, _ := store.List()
	if !all[0].Notified {
		t.Error("expected notified=true persisted")
	}
	if all[0].Completed {
		t.Error("expected completed untouched")
	}
}

func TestScheduler_EndToEndRelativeOffset(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "reminders.json"))
	r, err := store.Add("soon", "", "in 1 seconds")
	if err != nil {
		t.Fatal(err)
	}

	var c collector
	sched := NewScheduler(store, c.onFire, time.Second, time.Minute)
	cancel := startScheduler(t, sched)
	defer cancel()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && c.count() == 0 {
		time.Sleep(20 * time.Millisecond)
	}
	if c.count() != 1 {
		t.Fatalf("expected one notification, got %d", c.count())
	}

	c.mu.Lock()
	firedID := c.fired[0].ID
	c.mu.Unlock()
	if firedID != r.ID {
		t.Errorf("fired wrong reminder: %d", firedID)
	}

	all, _ := store.List()
	if !all[0].Notified || all[0].Completed {
		t.Errorf("expected notified=true completed=false, got %+v", all[0])
	}
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "reminders.json"))
	sched := NewScheduler(store, nil, time.Hour, time.Minute)

	cancel := startScheduler(t, sched)
	defer cancel()

	if !sched.Running() {
		t.Fatal("expected scheduler running")
	}

	// Second start returns immediately without error.
	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("second start should be a no-op, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("second start blocked instead of no-op")
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "reminders.json"))
	sched := NewScheduler(store, nil, time.Second, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	if sched.Running() {
		t.Error("expected Running()=false after stop")
	}
}

func TestScheduler_PicksUpExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	store := NewStore(path)

	var c collector
	sched := NewScheduler(store, c.onFire, time.Second, time.Minute)
	cancel := startScheduler(t, sched)
	defer cancel()

	// A different store instance (another session) writes after the
	// scheduler started; the per-cycle reload must see it.
	other := NewStore(path)
	if _, err := other.Add("external", "", time.Now().Add(-10*time.Second).Format(TimeLayout)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && c.count() == 0 {
		time.Sleep(20 * time.Millisecond)
	}
	if c.count() != 1 {
		t.Errorf("expected externally added reminder to fire, got %d", c.count())
	}
}
