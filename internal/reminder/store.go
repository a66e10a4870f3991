// Package reminder implements the obligation store and the background
// scheduler that fires time-triggered notifications exactly once each.
//
// File format: a JSON array of reminder objects keyed by id, times in local
// "2006-01-02 15:04:05" form so the file stays hand-editable.
package reminder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimeLayout is the on-disk timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Reminder is one time-triggered obligation. Created by a user request,
// mutated only by the scheduler (notified) or explicit completion; never
// deleted automatically.
type Reminder struct {
	ID          int64  `json:"id"`
	Task        string `json:"task"`
	Description string `json:"description,omitempty"`
	FireAt      string `json:"fire_at"`
	CreatedAt   string `json:"created_at"`
	Completed   bool   `json:"completed"`
	Notified    bool   `json:"notified"`
}

// FireTime parses the reminder's fire_at timestamp.
func (r Reminder) FireTime() (time.Time, error) {
	return time.ParseInLocation(TimeLayout, r.FireAt, time.Local)
}

// Store persists reminders to a single JSON file. The mutex makes the file
// single-writer: the scheduler's check-then-mark and a foreground completion
// can never interleave their read-modify-write cycles.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Add parses when (relative offset, today/tomorrow shorthand, or absolute
// date-time) and appends a new reminder with the next monotonic id.
// Unparseable input creates nothing.
func (s *Store) Add(task, description, when string) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	fireAt, err := ParseWhen(when, now)
	if err != nil {
		return Reminder{}, err
	}

	reminders, err := s.loadLocked()
	if err != nil {
		return Reminder{}, err
	}

	var maxID int64
	for _, r := range reminders {
		if r.ID > maxID {
			maxID = r.ID
		}
	}

	r := Reminder{
		ID:          maxID + 1,
		Task:        task,
		Description: description,
		FireAt:      fireAt.Format(TimeLayout),
		CreatedAt:   now.Format(TimeLayout),
	}
	reminders = append(reminders, r)

	if err := s.saveLocked(reminders); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

// List returns every stored reminder.
func (s *Store) List() ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Active returns reminders that have not been completed.
func (s *Store) Active() ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	var out []Reminder
	for _, r := range all {
		if !r.Completed {
			out = append(out, r)
		}
	}
	return out, nil
}

// Complete marks the reminder with the given id as completed. Returns false
// when no such reminder exists.
func (s *Store) Complete(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	for i := range reminders {
		if reminders[i].ID == id {
			reminders[i].Completed = true
			return true, s.saveLocked(reminders)
		}
	}
	return false, nil
}

// FireDue is the scheduler's critical section: under one lock it reloads the
// store from disk, collects every reminder whose firing window contains now,
// marks those notified, and persists before returning them. A reminder can
// therefore fire at most once even with racing scanners.
func (s *Store) FireDue(now time.Time, window time.Duration) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	var fired []Reminder
	for i := range reminders {
		r := reminders[i]
		if r.Completed || r.Notified {
			continue
		}
		fireAt, err := r.FireTime()
		if err != nil {
			continue
		}
		elapsed := now.Sub(fireAt)
		if elapsed >= 0 && elapsed <= window {
			reminders[i].Notified = true
			fired = append(fired, reminders[i])
		}
	}

	if len(fired) == 0 {
		return nil, nil
	}
	if err := s.saveLocked(reminders); err != nil {
		return nil, err
	}
	return fired, nil
}

// loadLocked reads the file. Missing file means no reminders yet.
// Caller holds s.mu.
func (s *Store) loadLocked() ([]Reminder, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reminders %s: %w", s.path, err)
	}
	var reminders []Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		return nil, fmt.Errorf("parse reminders %s: %w", s.path, err)
	}
	return reminders, nil
}

// saveLocked writes the full reminder list. Caller holds s.mu.
func (s *Store) saveLocked(reminders []Reminder) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create reminders dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(reminders, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reminders: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write reminders %s: %w", s.path, err)
	}
	return nil
}
