// Package xlsx renders records into styled Excel workbooks.
package xlsx

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Layout of generated workbooks.
const (
	ColumnWidth     = 22.0
	HeaderHeight    = 30.0
	RowHeight       = 18.0
	HeaderFillColor = "DCE6F1"
	BorderColor     = "808080"
	DateTimeFormat  = "dd.mm.yyyy hh:mm"
	DefaultSheet    = "Sheet1"
	maxSheetNameLen = 31
)

// Ensure Builder implements the interface.
var _ driven.WorkbookBuilder = (*Builder)(nil)

// Builder renders workbooks in memory.
type Builder struct{}

// NewBuilder creates a workbook builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build writes columns as a bold header row and one row per record.
// Cells are bordered; time values are formatted as dates.
func (b *Builder) Build(sheet string, columns []domain.AttachmentColumn, rows []domain.Record) ([]byte, error) {
	if len(columns) == 0 {
		if len(rows) == 0 {
			return nil, domain.ErrNoData
		}
		columns = inferColumns(rows)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet = SheetName(sheet)
	if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return nil, fmt.Errorf("column name: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, ColumnWidth); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	// 1. Header row
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, col.Header()); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.header); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetRowHeight(sheet, 1, HeaderHeight); err != nil {
		return nil, fmt.Errorf("header height: %w", err)
	}

	// 2. Data rows
	for r, rec := range rows {
		rowNum := r + 2
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
			value := rec[col.Field]
			style := styles.cell
			if _, ok := value.(time.Time); ok {
				style = styles.date
			}
			if err := f.SetCellValue(sheet, cell, cellValue(value)); err != nil {
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return nil, fmt.Errorf("style %s: %w", cell, err)
			}
		}
		if err := f.SetRowHeight(sheet, rowNum, RowHeight); err != nil {
			return nil, fmt.Errorf("row height: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type styleSet struct {
	header int
	cell   int
	date   int
}

func newStyles(f *excelize.File) (styleSet, error) {
	borders := []excelize.Border{
		{Type: "left", Color: BorderColor, Style: 1},
		{Type: "top", Color: BorderColor, Style: 1},
		{Type: "right", Color: BorderColor, Style: 1},
		{Type: "bottom", Color: BorderColor, Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{HeaderFillColor}, Pattern: 1},
		Border:    borders,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("header style: %w", err)
	}

	cell, err := f.NewStyle(&excelize.Style{
		Border:    borders,
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("cell style: %w", err)
	}

	dateFormat := DateTimeFormat
	date, err := f.NewStyle(&excelize.Style{
		Border:       borders,
		Alignment:    &excelize.Alignment{Vertical: "center"},
		CustomNumFmt: &dateFormat,
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("date style: %w", err)
	}

	return styleSet{header: header, cell: cell, date: date}, nil
}

// cellValue keeps numbers, booleans and times native and renders
// everything else as text.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case string, bool, int, int32, int64, float32, float64, time.Time:
		return x
	default:
		return domain.FormatValue(v)
	}
}

// SheetName makes name a valid worksheet name: no []:*?/\ characters and
// at most 31 characters. An empty name becomes DefaultSheet.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")

	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	if name == "" {
		return DefaultSheet
	}
	return name
}

// inferColumns returns every field present in rows, sorted.
func inferColumns(rows []domain.Record) []domain.AttachmentColumn {
	seen := make(map[string]bool)
	for _, rec := range rows {
		for k := range rec {
			seen[k] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	columns := make([]domain.AttachmentColumn, len(fields))
	for i, f := range fields {
		columns[i] = domain.AttachmentColumn{Field: f}
	}
	return columns
}
