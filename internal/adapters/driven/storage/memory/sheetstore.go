package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Ensure SheetStore implements the interface.
var _ driven.SheetStore = (*SheetStore)(nil)

// SheetStore is an in-memory spreadsheet: a grid of cells per tab.
type SheetStore struct {
	mu      sync.RWMutex
	tabs    map[string][][]any
	formats map[string]map[int]domain.ColumnFormat
	// Writes counts WriteRows calls, for batch assertions.
	Writes int
}

// NewSheetStore creates an empty in-memory spreadsheet store.
func NewSheetStore() *SheetStore {
	return &SheetStore{
		tabs:    make(map[string][][]any),
		formats: make(map[string]map[int]domain.ColumnFormat),
	}
}

func tabKey(spreadsheetID, tab string) string {
	return spreadsheetID + "/" + tab
}

// SetTable replaces a tab's contents, header first.
func (s *SheetStore) SetTable(spreadsheetID, tab string, rows [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tabKey(spreadsheetID, tab)] = copyGrid(rows)
}

// Formats returns the formats applied to a tab.
func (s *SheetStore) Formats(spreadsheetID, tab string) map[int]domain.ColumnFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formats[tabKey(spreadsheetID, tab)]
}

// HasTab reports whether a tab exists.
func (s *SheetStore) HasTab(spreadsheetID, tab string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tabs[tabKey(spreadsheetID, tab)]
	return ok
}

// ReadTable returns the raw cell grid of a tab.
func (s *SheetStore) ReadTable(_ context.Context, spreadsheetID, tab string) ([][]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grid, ok := s.tabs[tabKey(spreadsheetID, tab)]
	if !ok {
		return nil, fmt.Errorf("tab %s: %w", tab, domain.ErrNotFound)
	}
	return copyGrid(grid), nil
}

// ReadRows returns every data row of a tab.
func (s *SheetStore) ReadRows(ctx context.Context, spreadsheetID, tab string) ([]domain.SheetRow, error) {
	grid, err := s.ReadTable(ctx, spreadsheetID, tab)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}
	header := domain.HeaderNames(grid[0])
	rows := make([]domain.SheetRow, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		rows = append(rows, domain.NewSheetRow(header, cells, i+2))
	}
	return rows, nil
}

// EnsureTab creates the tab if it does not exist.
func (s *SheetStore) EnsureTab(_ context.Context, spreadsheetID, tab string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tabKey(spreadsheetID, tab)
	if _, ok := s.tabs[key]; !ok {
		s.tabs[key] = [][]any{}
	}
	return nil
}

// Clear empties a tab.
func (s *SheetStore) Clear(_ context.Context, spreadsheetID, tab string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tabKey(spreadsheetID, tab)
	if _, ok := s.tabs[key]; !ok {
		return fmt.Errorf("tab %s: %w", tab, domain.ErrNotFound)
	}
	s.tabs[key] = [][]any{}
	delete(s.formats, key)
	return nil
}

// WriteRows writes a block of rows starting at the 1-based startRow.
func (s *SheetStore) WriteRows(_ context.Context, spreadsheetID, tab string, startRow int, rows [][]any) error {
	if startRow < 1 {
		return fmt.Errorf("%w: start row %d", domain.ErrInvalidInput, startRow)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tabKey(spreadsheetID, tab)
	grid, ok := s.tabs[key]
	if !ok {
		return fmt.Errorf("tab %s: %w", tab, domain.ErrNotFound)
	}
	for len(grid) < startRow-1+len(rows) {
		grid = append(grid, []any{})
	}
	for i, row := range rows {
		grid[startRow-1+i] = append([]any(nil), row...)
	}
	s.tabs[key] = grid
	s.Writes++
	return nil
}

// FormatColumns records the formats applied to a tab.
func (s *SheetStore) FormatColumns(_ context.Context, spreadsheetID, tab string, formats map[int]domain.ColumnFormat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tabKey(spreadsheetID, tab)
	if s.formats[key] == nil {
		s.formats[key] = make(map[int]domain.ColumnFormat)
	}
	for idx, f := range formats {
		s.formats[key][idx] = f
	}
	return nil
}

// UpdateRows writes values into rows by position, checking revisions.
func (s *SheetStore) UpdateRows(
	_ context.Context,
	spreadsheetID, tab string,
	updates []domain.RowUpdate,
) (domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := domain.UpdateResult{Skipped: make(map[int]error)}

	key := tabKey(spreadsheetID, tab)
	grid, ok := s.tabs[key]
	if !ok || len(grid) == 0 {
		return result, fmt.Errorf("tab %s: %w", tab, domain.ErrNotFound)
	}
	header := domain.HeaderNames(grid[0])
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	for _, u := range updates {
		if u.RowNumber < 2 || u.RowNumber > len(grid) {
			result.Skipped[u.RowNumber] = fmt.Errorf("row %d: %w", u.RowNumber, domain.ErrNotFound)
			continue
		}
		current := domain.PadCells(grid[u.RowNumber-1], len(header))
		if u.ExpectedRevision != "" && domain.RowRevision(current) != u.ExpectedRevision {
			result.Skipped[u.RowNumber] = domain.ErrRowChanged
			continue
		}
		row := append([]any(nil), current...)
		for col, val := range u.Values {
			idx, found := index[col]
			if !found {
				continue
			}
			row[idx] = val
		}
		grid[u.RowNumber-1] = row
		result.Updated = append(result.Updated, u.RowNumber)
	}
	return result, nil
}

func copyGrid(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
