// Package ledger persists the worklogs already uploaded so repeated runs
// over the same window never log the same time twice.
//
// The ledger is a single JSON file replaced atomically on every write.
// A missing or unreadable file reads as empty and is left untouched until
// the next successful Record overwrites it.
package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/natefinch/atomic"
	"github.com/rohankatakam/skuld/internal/window"
)

// Entry is one uploaded worklog
type Entry struct {
	ID        string `json:"id"`
	Issue     string `json:"issue"`
	Since     string `json:"since"`
	Until     string `json:"until"`
	Seconds   int    `json:"seconds"`
	WorklogID string `json:"worklog_id"`
}

// State is the decoded ledger file
type State struct {
	Entries  []Entry           `json:"entries"`
	LastSync map[string]string `json:"last_sync,omitempty"`
}

// EntryID is the content address of (issue, since, until, seconds)
func EntryID(issue, since, until string, seconds int) string {
	raw := issue + "|" + since + "|" + until + "|" + strconv.Itoa(seconds)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Has reports whether any entry carries id. Duplicate rows are harmless.
func (s State) Has(id string) bool {
	for _, e := range s.Entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// LatestUntil returns the most recent until recorded for issue
func (s State) LatestUntil(issue string) (string, bool) {
	var latest string
	for _, e := range s.Entries {
		if e.Issue == issue && later(e.Until, latest) {
			latest = e.Until
		}
	}
	return latest, latest != ""
}

// LastSyncFor returns the until last synced for project, falling back to the
// newest until of any entry.
func (s State) LastSyncFor(project string) (string, bool) {
	if v, ok := s.LastSync[project]; ok && v != "" {
		return v, true
	}
	var latest string
	for _, e := range s.Entries {
		if later(e.Until, latest) {
			latest = e.Until
		}
	}
	return latest, latest != ""
}

// Issues returns the distinct issue keys in the ledger, sorted
func (s State) Issues() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, e := range s.Entries {
		if !seen[e.Issue] {
			seen[e.Issue] = true
			keys = append(keys, e.Issue)
		}
	}
	sort.Strings(keys)
	return keys
}

// later compares window bounds as instants, and as strings when either
// side does not parse.
func later(a, b string) bool {
	if b == "" {
		return a != ""
	}
	ta, okA := window.ParseTimestamp(a)
	tb, okB := window.ParseTimestamp(b)
	if okA && okB {
		return ta.After(tb)
	}
	return a > b
}

// Store reads and writes the ledger file at one path
type Store struct {
	path string
}

// Open returns a store for path. Nothing is read until it is needed.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file location
func (s *Store) Path() string { return s.path }

// Load reads the ledger. It never fails the caller: a missing file is an
// empty state with a nil error, a corrupt file is an empty state together
// with the decode error for reporting.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read ledger %s: %w", s.path, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("ignoring corrupt ledger %s: %w", s.path, err)
	}
	return st, nil
}

// Seen reports whether the exact tuple was recorded before
func (s *Store) Seen(issue, since, until string, seconds int) bool {
	st, _ := s.Load()
	return st.Has(EntryID(issue, since, until, seconds))
}

// Record appends an entry and atomically replaces the file
func (s *Store) Record(issue, since, until string, seconds int, worklogID string) error {
	st, _ := s.Load()
	st.Entries = append(st.Entries, Entry{
		ID:        EntryID(issue, since, until, seconds),
		Issue:     issue,
		Since:     since,
		Until:     until,
		Seconds:   seconds,
		WorklogID: worklogID,
	})
	return s.save(st)
}

// SetLastSync stores the until bound last synced for project
func (s *Store) SetLastSync(project, until string) error {
	st, _ := s.Load()
	if st.LastSync == nil {
		st.LastSync = make(map[string]string)
	}
	st.LastSync[project] = until
	return s.save(st)
}

func (s *Store) save(st State) error {
	if st.Entries == nil {
		st.Entries = []Entry{}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", s.path, err)
	}
	return nil
}
