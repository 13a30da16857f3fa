package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// fileEntry is the on-disk shape of one entry. Dates are parsed leniently
// so files written by other tools still load.
type fileEntry struct {
	ID                     string                     `json:"id,omitempty"`
	Date                   string                     `json:"date"`
	Recipient              string                     `json:"recipient,omitempty"`
	Subject                string                     `json:"subject,omitempty"`
	RequestIDs             []domain.RecordID          `json:"request_ids"`
	ChangeDatesByRequestID map[domain.RecordID]string `json:"changeDatesByRequestId,omitempty"`
}

// HistoryStore is a JSON-file implementation of driven.HistoryStore.
type HistoryStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewHistoryStore creates a store backed by the file at path.
// The file is created on first append.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path, now: time.Now}
}

// Path returns the history file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// Entries returns a scenario's entries, oldest first.
// A missing file is an empty history; an unparseable file is an error.
func (s *HistoryStore) Entries(_ context.Context, scenario string) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := s.load()
	if err != nil {
		return nil, err
	}
	return history[scenario], nil
}

// Append adds one entry and rewrites the file.
func (s *HistoryStore) Append(_ context.Context, scenario string, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load()
	if err != nil {
		if !errors.Is(err, errCorrupt) {
			return err
		}
		if err := s.quarantine(); err != nil {
			return err
		}
		history = make(domain.History)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	history[scenario] = append(history[scenario], entry)
	return s.save(history)
}

// PruneBefore removes entries dated before cutoff.
func (s *HistoryStore) PruneBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load()
	if err != nil {
		return 0, err
	}
	removed := 0
	for scenario, entries := range history {
		kept := make([]domain.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			if !e.Date.IsZero() && e.Date.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		history[scenario] = kept
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(history)
}

// Scenarios lists the scenarios present in the file.
func (s *HistoryStore) Scenarios(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(history))
	for name := range history {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

var errCorrupt = errors.New("history file is corrupt")

// load reads the whole document. Callers hold mu.
func (s *HistoryStore) load() (domain.History, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(domain.History), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	if len(data) == 0 {
		return make(domain.History), nil
	}

	var raw map[string][]fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errCorrupt, s.path, err)
	}

	history := make(domain.History, len(raw))
	for scenario, entries := range raw {
		out := make([]domain.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			date, ok := domain.ParseTimestamp(e.Date)
			if !ok {
				logger.Debug("history %s: entry with unparseable date %q", scenario, e.Date)
			}
			out = append(out, domain.HistoryEntry{
				ID:                     e.ID,
				Date:                   date,
				Recipient:              e.Recipient,
				Subject:                e.Subject,
				RequestIDs:             e.RequestIDs,
				ChangeDatesByRequestID: e.ChangeDatesByRequestID,
			})
		}
		history[scenario] = out
	}
	return history, nil
}

// save writes the document to a temporary file and renames it into place.
func (s *HistoryStore) save(history domain.History) error {
	raw := make(map[string][]fileEntry, len(history))
	for scenario, entries := range history {
		out := make([]fileEntry, 0, len(entries))
		for _, e := range entries {
			date := ""
			if !e.Date.IsZero() {
				date = e.Date.UTC().Format(time.RFC3339Nano)
			}
			ids := e.RequestIDs
			if ids == nil {
				ids = []domain.RecordID{}
			}
			out = append(out, fileEntry{
				ID:                     e.ID,
				Date:                   date,
				Recipient:              e.Recipient,
				Subject:                e.Subject,
				RequestIDs:             ids,
				ChangeDatesByRequestID: e.ChangeDatesByRequestID,
			})
		}
		raw[scenario] = out
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// quarantine moves an unreadable file aside so appends can continue.
func (s *HistoryStore) quarantine() error {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405"))
	if err := os.Rename(s.path, aside); err != nil {
		return fmt.Errorf("moving corrupt history aside: %w", err)
	}
	logger.Warn("history file %s is corrupt, moved to %s and starting empty", s.path, aside)
	return nil
}
