package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
type HistoryStore struct {
	mu      sync.RWMutex
	history domain.History
	// Err, when set, is returned by every call.
	Err error
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{history: make(domain.History)}
}

// Entries returns all entries for a scenario, oldest first.
func (s *HistoryStore) Entries(_ context.Context, scenario string) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]domain.HistoryEntry, len(s.history[scenario]))
	copy(result, s.history[scenario])
	return result, nil
}

// Append adds one entry to a scenario's log.
func (s *HistoryStore) Append(_ context.Context, scenario string, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.history[scenario] = append(s.history[scenario], entry)
	return nil
}

// PruneBefore removes entries dated before cutoff.
func (s *HistoryStore) PruneBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	removed := 0
	for scenario, entries := range s.history {
		kept := entries[:0]
		for _, e := range entries {
			if e.Date.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		s.history[scenario] = kept
	}
	return removed, nil
}

// Scenarios lists the scenarios that have entries.
func (s *HistoryStore) Scenarios(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(s.history))
	for scenario, entries := range s.history {
		if len(entries) > 0 {
			result = append(result, scenario)
		}
	}
	sort.Strings(result)
	return result, nil
}
