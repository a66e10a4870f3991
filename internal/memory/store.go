// Package memory implements the persistent context store: durable
// conversational memory, relevance retrieval, and lightweight preference
// learning.
//
// Two tiers with distinct jobs: a bounded session window (what the reasoning
// engine sees by default) and an unbounded in-memory history (what relevance
// search can still find), truncated to a maximum on persistence.
//
// Backing file format:
//
//	{ "user_profile": { "display_name":"…", "preferences":{…},
//	    "frequently_used_commands":[…], "last_interaction":"…" },
//	  "conversations": [ { "timestamp":"…", "user_input":"…",
//	    "assistant_response":"…", "session_id":"…", "context_type":"…" } ] }
package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	summaryPreviewChars  = 100
	relevantPreviewChars = 150
	summaryTurns         = 5
	relevantLimit        = 3
	commandCap           = 10
	sessionIDLayout      = "20060102_150405"
)

// commandKeywords is the fixed vocabulary scanned for preference learning.
var commandKeywords = []string{"create", "write", "read", "execute", "remind", "list"}

// Turn is one immutable conversation exchange.
type Turn struct {
	Timestamp         string `json:"timestamp"`
	UserInput         string `json:"user_input"`
	AssistantResponse string `json:"assistant_response"`
	SessionID         string `json:"session_id"`
	ContextType       string `json:"context_type"`
}

// Profile is the single per-installation user profile, mutated in place on
// every turn and persisted across sessions.
type Profile struct {
	DisplayName      string         `json:"display_name"`
	Preferences      map[string]any `json:"preferences"`
	FrequentCommands []string       `json:"frequently_used_commands"`
	LastInteraction  string         `json:"last_interaction,omitempty"`
}

// Stats is a read-only snapshot of the store.
type Stats struct {
	SessionTurns    int      `json:"session_turns"`
	SessionID       string   `json:"session_id"`
	DisplayName     string   `json:"display_name"`
	RecentCommands  []string `json:"recent_commands"`
	LastInteraction string   `json:"last_interaction"`
}

// Store owns all conversational memory. All methods are safe for concurrent
// use; the backing file has a single writer by construction.
type Store struct {
	path          string
	maxHistory    int
	window        int
	autosaveEvery int
	now           func() time.Time

	mu            sync.Mutex
	sessionID     string
	session       []Turn // bounded window, oldest first
	history       []Turn // unbounded until save
	profile       Profile
	recordedTurns int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLimits overrides retention limits. Zero values keep the defaults.
func WithLimits(maxHistory, window, autosaveEvery int) Option {
	return func(s *Store) {
		if maxHistory > 0 {
			s.maxHistory = maxHistory
		}
		if window > 0 {
			s.window = window
		}
		if autosaveEvery > 0 {
			s.autosaveEvery = autosaveEvery
		}
	}
}

// WithProfileSeed sets the profile used when the backing store has none.
func WithProfileSeed(displayName string, preferences map[string]any) Option {
	return func(s *Store) {
		s.profile.DisplayName = displayName
		if preferences != nil {
			s.profile.Preferences = preferences
		}
	}
}

// NewStore creates a Store backed by the file at path and loads any existing
// state. A missing or corrupt backing file is logged and yields a fresh
// profile and empty history, never an error.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:          path,
		maxHistory:    100,
		window:        5,
		autosaveEvery: 5,
		now:           time.Now,
		profile: Profile{
			DisplayName: "Sir",
			Preferences: map[string]any{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessionID = s.now().Format(sessionIDLayout)
	s.load()
	return s
}

// fileFormat is the top-level backing store object. Unknown top-level keys
// written by other tooling are preserved on save via the raw map merge.
type fileFormat struct {
	UserProfile   *Profile `json:"user_profile,omitempty"`
	Conversations []Turn   `json:"conversations,omitempty"`
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("memory: load failed, starting fresh", "path", s.path, "err", err)
		}
		return
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("memory: corrupt context file, starting fresh", "path", s.path, "err", err)
		return
	}

	if f.UserProfile != nil {
		s.profile = *f.UserProfile
		if s.profile.Preferences == nil {
			s.profile.Preferences = map[string]any{}
		}
	}
	s.history = f.Conversations

	// Seed the session window with the most recent turns.
	start := len(s.history) - s.window
	if start < 0 {
		start = 0
	}
	s.session = append(s.session, s.history[start:]...)
}

// RecordTurn appends one exchange to both memory tiers, updates the profile,
// and autosaves every few turns. Appends are strictly ordered by call order.
func (s *Store) RecordTurn(userInput, assistantResponse, contextType string) {
	if contextType == "" {
		contextType = "general"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turn := Turn{
		Timestamp:         s.now().Format(time.RFC3339),
		UserInput:         userInput,
		AssistantResponse: assistantResponse,
		SessionID:         s.sessionID,
		ContextType:       contextType,
	}

	s.session = append(s.session, turn)
	if len(s.session) > s.window {
		s.session = s.session[len(s.session)-s.window:]
	}
	s.history = append(s.history, turn)

	s.profile.LastInteraction = turn.Timestamp
	s.learnCommands(userInput)

	// Autosave trades durability for write volume: every N turns, not each.
	s.recordedTurns++
	if s.recordedTurns%s.autosaveEvery == 0 {
		if err := s.saveLocked(); err != nil {
			slog.Warn("memory: autosave failed", "err", err)
		}
	}
}

// learnCommands tracks the fixed command vocabulary in recency order,
// insert-if-absent, capped. Caller holds s.mu.
func (s *Store) learnCommands(userInput string) {
	lower := strings.ToLower(userInput)
	for _, kw := range commandKeywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		known := false
		for _, c := range s.profile.FrequentCommands {
			if c == kw {
				known = true
				break
			}
		}
		if !known {
			s.profile.FrequentCommands = append(s.profile.FrequentCommands, kw)
		}
	}
	if n := len(s.profile.FrequentCommands); n > commandCap {
		s.profile.FrequentCommands = s.profile.FrequentCommands[n-commandCap:]
	}
}

// ContextSummary renders the recent session window for the reasoning engine.
// Pure read; returns a sentinel when the session is empty.
func (s *Store) ContextSummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.session) == 0 {
		return "No previous conversation context available."
	}

	recent := s.session
	if len(recent) > summaryTurns {
		recent = recent[len(recent)-summaryTurns:]
	}

	var b strings.Builder
	b.WriteString("## Recent Conversation Context:\n")
	for _, turn := range recent {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n---\n",
			turn.UserInput, preview(turn.AssistantResponse, summaryPreviewChars))
	}

	if n := len(s.profile.FrequentCommands); n > 0 {
		start := n - summaryTurns
		if start < 0 {
			start = 0
		}
		fmt.Fprintf(&b, "\n## User frequently uses: %s\n",
			strings.Join(s.profile.FrequentCommands[start:], ", "))
	}

	return b.String()
}

// RelevantContext scans the full history newest-first for turns whose input
// shares at least one case-folded token with query, stopping at three
// matches. Matches come back oldest-first. Returns "" when nothing matches.
func (s *Store) RelevantContext(query string) string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []Turn // newest first while collecting
	for i := len(s.history) - 1; i >= 0; i-- {
		if overlaps(tokenize(s.history[i].UserInput), tokens) {
			matches = append(matches, s.history[i])
			if len(matches) >= relevantLimit {
				break
			}
		}
	}
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Relevant Previous Context:\n")
	for i := len(matches) - 1; i >= 0; i-- {
		turn := matches[i]
		fmt.Fprintf(&b, "Previously - User: %s\nAssistant: %s\n---\n",
			turn.UserInput, preview(turn.AssistantResponse, relevantPreviewChars))
	}
	return b.String()
}

// Save persists the profile and the truncated history, preserving any
// top-level fields other tooling wrote to the backing file. In-memory state
// stays authoritative when the write fails.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	// Merge with whatever is already on disk so unrelated top-level keys
	// survive a save.
	existing := map[string]json.RawMessage{}
	if data, err := os.ReadFile(s.path); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			existing = map[string]json.RawMessage{}
		}
	}

	history := s.history
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	profileJSON, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	turnsJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	existing["user_profile"] = profileJSON
	existing["conversations"] = turnsJSON

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create context dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write context %s: %w", s.path, err)
	}
	return nil
}

// ClearSession empties both memory tiers and starts a new session. The user
// profile is preserved.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.history = nil
	s.sessionID = s.now().Format(sessionIDLayout)
}

// ResetAll wipes the backing store and all in-memory state except the
// profile seed defaults. Used for cold starts.
func (s *Store) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	s.history = nil
	s.profile = Profile{DisplayName: "Sir", Preferences: map[string]any{}}
	s.sessionID = s.now().Format(sessionIDLayout)
	s.recordedTurns = 0

	if err := os.WriteFile(s.path, []byte("{}"), 0o644); err != nil {
		return fmt.Errorf("wipe context %s: %w", s.path, err)
	}
	return nil
}

// Stats returns a read-only snapshot of the store.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmds := s.profile.FrequentCommands
	if len(cmds) > summaryTurns {
		cmds = cmds[len(cmds)-summaryTurns:]
	}
	out := make([]string, len(cmds))
	copy(out, cmds)

	return Stats{
		SessionTurns:    len(s.session),
		SessionID:       s.sessionID,
		DisplayName:     s.profile.DisplayName,
		RecentCommands:  out,
		LastInteraction: s.profile.LastInteraction,
	}
}

// SessionWindow returns a copy of the bounded session window, oldest first.
func (s *Store) SessionWindow() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.session))
	copy(out, s.session)
	return out
}

// HistoryLen returns the number of turns currently held in memory.
func (s *Store) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func preview(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, f := range strings.Fields(strings.ToLower(text)) {
		tokens[f] = true
	}
	return tokens
}

func overlaps(a, b map[string]bool) bool {
	for t := range a {
		if b[t] {
			return true
		}
	}
	return false
}
