package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets is an in-memory Sheets API covering the calls SheetStore makes.
type fakeSheets struct {
	mu       sync.Mutex
	titles   []string
	grids    map[string][][]any
	formats  map[string]map[int]string
	failCode int
	calls    []string
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{
		grids:   make(map[string][][]any),
		formats: make(map[string]map[int]string),
	}
}

func (f *fakeSheets) setTab(title string, grid [][]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grids[title]; !ok {
		f.titles = append(f.titles, title)
	}
	f.grids[title] = grid
}

func (f *fakeSheets) grid(title string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grids[title]
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	f.calls = append(f.calls, r.Method+" "+path)

	if f.failCode != 0 {
		writeAPIError(w, f.failCode, "injected failure")
		return
	}

	switch {
	case r.Method == http.MethodGet && !strings.Contains(path, "/"):
		f.getSpreadsheet(w)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate") && !strings.Contains(path, "/values"):
		f.batchUpdate(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/values:batchUpdate"):
		f.valuesBatchUpdate(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		tab, _ := parseRange(valuesRange(strings.TrimSuffix(path, ":clear")))
		if _, ok := f.grids[tab]; !ok {
			writeAPIError(w, http.StatusBadRequest, "Unable to parse range: "+tab)
			return
		}
		f.grids[tab] = nil
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		tab, _ := parseRange(valuesRange(path))
		grid, ok := f.grids[tab]
		if !ok {
			writeAPIError(w, http.StatusBadRequest, "Unable to parse range: "+tab)
			return
		}
		writeJSON(w, map[string]any{"range": tab, "values": grid})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !f.write(valuesRange(path), body.Values) {
			writeAPIError(w, http.StatusBadRequest, "Unable to parse range")
			return
		}
		writeJSON(w, map[string]any{"updatedRows": len(body.Values)})
	default:
		writeAPIError(w, http.StatusNotFound, "no route "+r.Method+" "+path)
	}
}

func (f *fakeSheets) getSpreadsheet(w http.ResponseWriter) {
	list := make([]map[string]any, 0, len(f.titles))
	for i, title := range f.titles {
		list = append(list, map[string]any{
			"properties": map[string]any{"sheetId": i * 100, "title": title},
		})
	}
	writeJSON(w, map[string]any{"sheets": list})
}

func (f *fakeSheets) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var body sheets.BatchUpdateSpreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, req := range body.Requests {
		if req.AddSheet != nil {
			title := req.AddSheet.Properties.Title
			f.titles = append(f.titles, title)
			f.grids[title] = nil
		}
		if req.RepeatCell != nil {
			title := f.titles[req.RepeatCell.Range.SheetId/100]
			if f.formats[title] == nil {
				f.formats[title] = make(map[int]string)
			}
			nf := req.RepeatCell.Cell.UserEnteredFormat.NumberFormat
			f.formats[title][int(req.RepeatCell.Range.StartColumnIndex)] = nf.Type + "|" + nf.Pattern
		}
	}
	writeJSON(w, map[string]any{})
}

func (f *fakeSheets) valuesBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data []struct {
			Range  string  `json:"range"`
			Values [][]any `json:"values"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, d := range body.Data {
		f.write(d.Range, d.Values)
	}
	writeJSON(w, map[string]any{"totalUpdatedRows": len(body.Data)})
}

// write places rows at the range's start row, column A (caller holds lock).
func (f *fakeSheets) write(a1 string, rows [][]any) bool {
	tab, start := parseRange(a1)
	grid, ok := f.grids[tab]
	if !ok {
		return false
	}
	for len(grid) < start-1+len(rows) {
		grid = append(grid, []any{})
	}
	for i, row := range rows {
		grid[start-1+i] = row
	}
	f.grids[tab] = grid
	return true
}

func valuesRange(path string) string {
	_, rng, _ := strings.Cut(path, "/values/")
	return rng
}

// parseRange splits "'Tab'!A3:C3" into the tab and start row.
func parseRange(a1 string) (string, int) {
	tab, cell, _ := strings.Cut(a1, "!")
	tab = strings.TrimSuffix(strings.TrimPrefix(tab, "'"), "'")
	tab = strings.ReplaceAll(tab, "''", "'")
	cell, _, _ = strings.Cut(cell, ":")
	row, err := strconv.Atoi(strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil {
		row = 1
	}
	return tab, row
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error": {"code": %d, "message": %q}}`, code, msg)
}

func newTestSheetStore(t *testing.T) (*SheetStore, *fakeSheets) {
	t.Helper()
	fake := newFakeSheets()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := NewSheetsService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	limiter := NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100})
	return NewSheetStoreWithLimiter(svc, limiter), fake
}
