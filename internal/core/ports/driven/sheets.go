package driven

import (
	"context"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// SheetStore is a spreadsheet used as a row store.
type SheetStore interface {
	// ReadRows returns every data row of a tab. The first row is the header.
	ReadRows(ctx context.Context, spreadsheetID, tab string) ([]domain.SheetRow, error)

	// ReadTable returns the raw cell grid of a tab, header first.
	ReadTable(ctx context.Context, spreadsheetID, tab string) ([][]any, error)

	// EnsureTab creates the tab if it does not exist.
	EnsureTab(ctx context.Context, spreadsheetID, tab string) error

	// Clear empties the used range of a tab.
	Clear(ctx context.Context, spreadsheetID, tab string) error

	// WriteRows writes a block of rows starting at the given 1-based row.
	WriteRows(ctx context.Context, spreadsheetID, tab string, startRow int, rows [][]any) error

	// FormatColumns applies number formats to the data cells (below the header)
	// of the given 0-based column indices.
	FormatColumns(ctx context.Context, spreadsheetID, tab string, formats map[int]domain.ColumnFormat) error

	// UpdateRows writes named column values into rows by position,
	// skipping rows whose revision no longer matches.
	UpdateRows(ctx context.Context, spreadsheetID, tab string, updates []domain.RowUpdate) (domain.UpdateResult, error)
}
