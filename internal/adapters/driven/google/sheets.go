package google

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Ensure SheetStore implements the interface.
var _ driven.SheetStore = (*SheetStore)(nil)

// SheetStore reads and writes spreadsheet tabs through the Sheets API.
// Values are written RAW and read UNFORMATTED so serial dates round-trip
// as numbers.
type SheetStore struct {
	svc     *sheets.Service
	limiter *RateLimiter
}

// NewSheetStore creates a sheet store over an authenticated service.
func NewSheetStore(svc *sheets.Service) *SheetStore {
	return &SheetStore{svc: svc, limiter: NewRateLimiter(ServiceSheets)}
}

// NewSheetStoreWithLimiter creates a sheet store with a custom rate limiter.
func NewSheetStoreWithLimiter(svc *sheets.Service, limiter *RateLimiter) *SheetStore {
	return &SheetStore{svc: svc, limiter: limiter}
}

// ReadTable returns the raw cell grid of a tab, header first.
func (s *SheetStore) ReadTable(ctx context.Context, spreadsheetID, tab string) ([][]any, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, quoteTab(tab)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, WrapError("read "+tab, s.limiter.Observe(err))
	}

	grid := make([][]any, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = append([]any(nil), row...)
	}
	return grid, nil
}

// ReadRows returns every data row of a tab with its physical row number.
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
func (s *SheetStore) EnsureTab(ctx context.Context, spreadsheetID, tab string) error {
	_, err := s.sheetID(ctx, spreadsheetID, tab)
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return WrapError("add tab "+tab, s.limiter.Observe(err))
	}
	return nil
}

// Clear empties every cell of a tab.
func (s *SheetStore) Clear(ctx context.Context, spreadsheetID, tab string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, quoteTab(tab), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return WrapError("clear "+tab, s.limiter.Observe(err))
}

// WriteRows writes a block of rows starting at the 1-based startRow, column A.
func (s *SheetStore) WriteRows(ctx context.Context, spreadsheetID, tab string, startRow int, rows [][]any) error {
	if startRow < 1 {
		return fmt.Errorf("%w: start row %d", domain.ErrInvalidInput, startRow)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	values := &sheets.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, cellRange(tab, startRow), values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return WrapError(fmt.Sprintf("write %s row %d", tab, startRow), s.limiter.Observe(err))
}

// FormatColumns applies number formats to the data cells of the given columns.
func (s *SheetStore) FormatColumns(
	ctx context.Context,
	spreadsheetID, tab string,
	formats map[int]domain.ColumnFormat,
) error {
	if len(formats) == 0 {
		return nil
	}

	sheetID, err := s.sheetID(ctx, spreadsheetID, tab)
	if err != nil {
		return err
	}

	indices := make([]int, 0, len(formats))
	for idx := range formats {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	requests := make([]*sheets.Request, 0, len(indices))
	for _, idx := range indices {
		f := formats[idx]
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					StartColumnIndex: int64(idx),
					EndColumnIndex:   int64(idx + 1),
					ForceSendFields:  []string{"SheetId", "StartColumnIndex"},
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: string(f.Kind), Pattern: f.Pattern},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return WrapError("format "+tab, s.limiter.Observe(err))
	}
	return nil
}

// UpdateRows writes named column values into rows by position. The tab is
// re-read first; rows whose cells no longer hash to the expected revision
// are skipped with domain.ErrRowChanged. Accepted rows are written in one
// batch call.
func (s *SheetStore) UpdateRows(
	ctx context.Context,
	spreadsheetID, tab string,
	updates []domain.RowUpdate,
) (domain.UpdateResult, error) {
	result := domain.UpdateResult{Skipped: make(map[int]error)}
	if len(updates) == 0 {
		return result, nil
	}

	grid, err := s.ReadTable(ctx, spreadsheetID, tab)
	if err != nil {
		return result, err
	}
	if len(grid) == 0 {
		return result, fmt.Errorf("tab %s header: %w", tab, domain.ErrNotFound)
	}

	header := domain.HeaderNames(grid[0])
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	var data []*sheets.ValueRange
	var accepted []int
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
			if idx, ok := index[col]; ok {
				row[idx] = val
			}
		}
		data = append(data, &sheets.ValueRange{
			Range:  rowRange(tab, u.RowNumber, len(row)),
			Values: [][]any{row},
		})
		accepted = append(accepted, u.RowNumber)
	}

	if len(data) == 0 {
		return result, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return result, err
	}

	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return result, WrapError("update "+tab, s.limiter.Observe(err))
	}
	result.Updated = accepted
	return result, nil
}

// sheetID resolves a tab title to its numeric sheet id.
func (s *SheetStore) sheetID(ctx context.Context, spreadsheetID, tab string) (int64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	resp, err := s.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, WrapError("get spreadsheet", s.limiter.Observe(err))
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("tab %s: %w", tab, domain.ErrNotFound)
}

// quoteTab returns the A1 notation for a whole tab.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// cellRange addresses column A of a row.
func cellRange(tab string, row int) string {
	return quoteTab(tab) + "!A" + strconv.Itoa(row)
}

// rowRange addresses width cells of a row starting at column A.
func rowRange(tab string, row, width int) string {
	if width < 1 {
		width = 1
	}
	r := strconv.Itoa(row)
	return quoteTab(tab) + "!A" + r + ":" + ColumnLetter(width-1) + r
}

// ColumnLetter converts a 0-based column index to its A1 letters.
func ColumnLetter(idx int) string {
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}
