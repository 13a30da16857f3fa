package domain

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// SheetRow is a spreadsheet row with its physical position.
//
// RowNumber is 1-based and only valid until the sheet is edited or sorted;
// Revision captures the cell contents at read time so an update can detect
// that the row under RowNumber is no longer the row that was read.
type SheetRow struct {
	RowNumber int
	Record    Record
	Revision  string
}

// RowUpdate writes values into named columns of one row.
type RowUpdate struct {
	RowNumber int
	// ExpectedRevision is the Revision the row had when read. Empty skips the check.
	ExpectedRevision string
	Values           map[string]any
}

// UpdateResult reports which row updates were applied and which were skipped.
type UpdateResult struct {
	Updated []int
	Skipped map[int]error
}

// RowRevision hashes a row's cells into a short revision stamp.
func RowRevision(cells []any) string {
	h := fnv.New64a()
	for i, c := range cells {
		if i > 0 {
			_, _ = h.Write([]byte{0x1f})
		}
		_, _ = h.Write([]byte(strings.TrimSpace(FormatValue(c))))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// NumberFormatKind is a spreadsheet number format family.
type NumberFormatKind string

// Supported column formats.
const (
	FormatText     NumberFormatKind = "TEXT"
	FormatDateTime NumberFormatKind = "DATE_TIME"
	FormatDate     NumberFormatKind = "DATE"
	FormatNumber   NumberFormatKind = "NUMBER"
)

// ColumnFormat applies a number format to the data cells of a named column.
type ColumnFormat struct {
	Column  string
	Kind    NumberFormatKind
	Pattern string
}

// NewSheetRow builds a SheetRow from a header and one row of cells.
// Short rows are padded to the header width; blank header cells are ignored.
func NewSheetRow(header []string, cells []any, rowNumber int) SheetRow {
	padded := PadCells(cells, len(header))
	rec := make(Record, len(header))
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			continue
		}
		rec[name] = padded[i]
	}
	return SheetRow{RowNumber: rowNumber, Record: rec, Revision: RowRevision(padded)}
}

// PadCells returns cells extended with empty strings to at least width entries.
func PadCells(cells []any, width int) []any {
	if len(cells) >= width {
		return cells
	}
	out := make([]any, width)
	copy(out, cells)
	for i := len(cells); i < width; i++ {
		out[i] = ""
	}
	return out
}

// HeaderNames converts a header row of cells to column names.
func HeaderNames(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(FormatValue(c))
	}
	return out
}
