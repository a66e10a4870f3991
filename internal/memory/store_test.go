package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "context_memory.json")
	return NewStore(path, opts...), path
}

// ─── RecordTurn / session window ───────────────────────────────────────────

func TestRecordTurn_BoundedWindow(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 0; i < 8; i++ {
		s.RecordTurn(fmt.Sprintf("input %d", i), "ok", "general")
	}

	window := s.SessionWindow()
	if len(window) != 5 {
		t.Fatalf("expected window of 5 turns, got %d", len(window))
	}
	// Most recent `capacity` turns, in order.
	for i, turn := range window {
		want := fmt.Sprintf("input %d", i+3)
		if turn.UserInput != want {
			t.Errorf("window[%d]: expected %q, got %q", i, want, turn.UserInput)
		}
	}
	if s.HistoryLen() != 8 {
		t.Errorf("expected full history of 8, got %d", s.HistoryLen())
	}
}

func TestRecordTurn_SessionIDSet(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordTurn("hello", "hi", "")

	window := s.SessionWindow()
	if len(window) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(window))
	}
	if window[0].SessionID == "" {
		t.Error("expected non-empty session id")
	}
	if window[0].ContextType != "general" {
		t.Errorf("expected default context type, got %q", window[0].ContextType)
	}
}

// ─── Preference learning ───────────────────────────────────────────────────

func TestLearnCommands_InsertIfAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordTurn("please create a folder", "done", "task")
	s.RecordTurn("create another one", "done", "task")
	s.RecordTurn("now read it back", "done", "task")

	stats := s.Stats()
	if len(stats.RecentCommands) != 2 {
		t.Fatalf("expected 2 learned commands, got %v", stats.RecentCommands)
	}
	if stats.RecentCommands[0] != "create" || stats.RecentCommands[1] != "read" {
		t.Errorf("unexpected command order: %v", stats.RecentCommands)
	}
}

func TestLearnCommands_Cap(t *testing.T) {
	s, _ := newTestStore(t)
	// Only 6 keywords exist, so the cap cannot be exceeded organically;
	// exercise the trim path by preloading an oversized list.
	s.mu.Lock()
	for i := 0; i < 12; i++ {
		s.profile.FrequentCommands = append(s.profile.FrequentCommands, fmt.Sprintf("old%d", i))
	}
	s.mu.Unlock()

	s.RecordTurn("remind me later", "sure", "reminder")

	s.mu.Lock()
	n := len(s.profile.FrequentCommands)
	last := s.profile.FrequentCommands[n-1]
	s.mu.Unlock()

	if n != 10 {
		t.Errorf("expected command list capped at 10, got %d", n)
	}
	if last != "remind" {
		t.Errorf("expected most recent command last, got %q", last)
	}
}

// ─── ContextSummary ────────────────────────────────────────────────────────

func TestContextSummary_EmptySentinel(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.ContextSummary(); got != "No previous conversation context available." {
		t.Errorf("unexpected sentinel: %q", got)
	}
}

func TestContextSummary_TruncatesResponses(t *testing.T) {
	s, _ := newTestStore(t)
	long := strings.Repeat("x", 250)
	s.RecordTurn("hello there", long, "general")

	summary := s.ContextSummary()
	if !strings.Contains(summary, "hello there") {
		t.Error("summary missing user input")
	}
	if !strings.Contains(summary, strings.Repeat("x", 100)+"...") {
		t.Error("expected truncated response preview")
	}
	if strings.Contains(summary, strings.Repeat("x", 101)) {
		t.Error("response preview not bounded at 100 chars")
	}
}

func TestContextSummary_IncludesFrequentCommands(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordTurn("list my files", "here", "task")

	if got := s.ContextSummary(); !strings.Contains(got, "## User frequently uses: list") {
		t.Errorf("summary missing frequent commands section:\n%s", got)
	}
}

// ─── RelevantContext ───────────────────────────────────────────────────────

func TestRelevantContext_TokenOverlap(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordTurn("schedule a meeting with bob", "done", "task")
	s.RecordTurn("what is the weather", "sunny", "general")
	s.RecordTurn("cancel the meeting", "cancelled", "task")

	got := s.RelevantContext("MEETING notes")
	if !strings.Contains(got, "schedule a meeting with bob") {
		t.Error("missing first matching turn")
	}
	if !strings.Contains(got, "cancel the meeting") {
		t.Error("missing second matching turn")
	}
	if strings.Contains(got, "weather") {
		t.Error("non-matching turn leaked into relevant context")
	}
	// Oldest-first ordering.
	if strings.Index(got, "schedule") > strings.Index(got, "cancel") {
		t.Error("expected matches ordered oldest-first")
	}
}

func TestRelevantContext_CapAtThree(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 6; i++ {
		s.RecordTurn(fmt.Sprintf("deploy service %d", i), "ok", "task")
	}

	got := s.RelevantContext("deploy")
	if n := strings.Count(got, "Previously - User:"); n != 3 {
		t.Errorf("expected 3 matches, got %d", n)
	}
	// Newest three, returned oldest-first.
	if !strings.Contains(got, "service 3") || !strings.Contains(got, "service 5") {
		t.Errorf("expected the newest matches, got:\n%s", got)
	}
	if strings.Contains(got, "service 2") {
		t.Error("older match beyond the cap included")
	}
}

func TestRelevantContext_NoMatch(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordTurn("hello world", "hi", "general")
	if got := s.RelevantContext("unrelated"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestRelevantContext_EmptyHistory(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.RelevantContext("anything"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

// ─── Save / load round trip ────────────────────────────────────────────────

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	for i := 0; i < 7; i++ {
		s.RecordTurn(fmt.Sprintf("turn %d", i), "resp", "general")
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	s2 := NewStore(path)
	if s2.HistoryLen() != 7 {
		t.Errorf("expected 7 turns after reload, got %d", s2.HistoryLen())
	}
	window := s2.SessionWindow()
	if len(window) != 5 {
		t.Fatalf("expected seeded window of 5, got %d", len(window))
	}
	if window[4].UserInput != "turn 6" {
		t.Errorf("expected newest turn last in window, got %q", window[4].UserInput)
	}
}

func TestSave_TruncatesHistory(t *testing.T) {
	s, path := newTestStore(t, WithLimits(10, 0, 0))
	for i := 0; i < 25; i++ {
		s.RecordTurn(fmt.Sprintf("turn %d", i), "resp", "general")
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	s2 := NewStore(path, WithLimits(10, 0, 0))
	if s2.HistoryLen() != 10 {
		t.Errorf("expected history truncated to 10, got %d", s2.HistoryLen())
	}
	// Tail-matching: the retained turns are the newest ones.
	window := s2.SessionWindow()
	if window[len(window)-1].UserInput != "turn 24" {
		t.Errorf("expected newest turn retained, got %q", window[len(window)-1].UserInput)
	}
}

func TestSave_PreservesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context_memory.json")
	seed := `{"installer_version": "0.3.1"}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	s.RecordTurn("hello", "hi", "general")
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal saved file: %v", err)
	}
	if _, ok := raw["installer_version"]; !ok {
		t.Error("expected unrelated top-level key preserved on save")
	}
	if _, ok := raw["user_profile"]; !ok {
		t.Error("expected user_profile written")
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context_memory.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if s.HistoryLen() != 0 {
		t.Error("expected empty history from corrupt file")
	}
	if s.Stats().DisplayName != "Sir" {
		t.Error("expected default profile from corrupt file")
	}
}

func TestLoad_ProfileRestored(t *testing.T) {
	s, path := newTestStore(t)
	s.RecordTurn("create something", "done", "task")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	s2 := NewStore(path)
	stats := s2.Stats()
	if len(stats.RecentCommands) != 1 || stats.RecentCommands[0] != "create" {
		t.Errorf("expected learned commands restored, got %v", stats.RecentCommands)
	}
	if stats.LastInteraction == "" {
		t.Error("expected last interaction restored")
	}
}

// ─── Autosave ──────────────────────────────────────────────────────────────

func TestAutosave_EveryFiveTurns(t *testing.T) {
	s, path := newTestStore(t)

	for i := 0; i < 4; i++ {
		s.RecordTurn(fmt.Sprintf("turn %d", i), "resp", "general")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected no autosave before the fifth turn")
	}

	s.RecordTurn("turn 4", "resp", "general")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected autosave after fifth turn: %v", err)
	}
}

// ─── ClearSession / ResetAll ───────────────────────────────────────────────

func TestClearSession_KeepsProfile(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordTurn("create a file", "done", "task")

	s.ClearSession()

	stats := s.Stats()
	if stats.SessionTurns != 0 {
		t.Error("expected empty session after clear")
	}
	if s.HistoryLen() != 0 {
		t.Error("expected empty history after clear")
	}
	if len(stats.RecentCommands) != 1 {
		t.Error("expected profile preserved across clear")
	}
}

func TestResetAll_WipesBackingStore(t *testing.T) {
	s, path := newTestStore(t)
	s.RecordTurn("create a file", "done", "task")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	if err := s.ResetAll(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "{}" {
		t.Errorf("expected wiped backing store, got %q", data)
	}
	if len(s.Stats().RecentCommands) != 0 {
		t.Error("expected profile reset")
	}
}

// ─── Stats ─────────────────────────────────────────────────────────────────

func TestStats_Snapshot(t *testing.T) {
	s, _ := newTestStore(t)
	s.RecordTurn("read the news", "here", "task")

	stats := s.Stats()
	if stats.SessionTurns != 1 {
		t.Errorf("expected 1 session turn, got %d", stats.SessionTurns)
	}
	if stats.SessionID == "" {
		t.Error("expected non-empty session id")
	}
	if stats.DisplayName != "Sir" {
		t.Errorf("unexpected display name %q", stats.DisplayName)
	}
}
