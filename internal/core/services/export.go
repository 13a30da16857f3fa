package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.ExportService = (*ExportService)(nil)

// verifySampleRows is how many data rows the verification step compares.
const verifySampleRows = 5

// ExportConfig holds the export pipeline settings.
type ExportConfig struct {
	Query       string
	RowLimit    int
	Rules       []domain.EnrichmentRule
	Sheets      domain.SheetsSettings
	FolderField string
	StatusField string
}

// ExportService moves extracted records into the shared spreadsheet or
// into a downloadable workbook.
type ExportService struct {
	records  driven.RecordSource
	enricher *Enricher
	sheets   driven.SheetStore
	workbook driven.WorkbookBuilder
	cfg      ExportConfig
}

// NewExportService creates an export service.
func NewExportService(
	records driven.RecordSource,
	enricher *Enricher,
	sheets driven.SheetStore,
	workbook driven.WorkbookBuilder,
	cfg ExportConfig,
) *ExportService {
	if cfg.Sheets.BatchSize <= 0 {
		cfg.Sheets.BatchSize = domain.DefaultAppSettings().Sheets.BatchSize
	}
	return &ExportService{
		records:  records,
		enricher: enricher,
		sheets:   sheets,
		workbook: workbook,
		cfg:      cfg,
	}
}

// ExportToSheet extracts and enriches all records and rewrites the export tab.
func (s *ExportService) ExportToSheet(ctx context.Context, req driving.ExportRequest) (*driving.ExportResult, error) {
	id := firstNonEmpty(req.SpreadsheetID, s.cfg.Sheets.SpreadsheetID)
	tab := firstNonEmpty(req.Tab, s.cfg.Sheets.ExportTab)
	if id == "" {
		return nil, fmt.Errorf("%w: sheets.spreadsheet_id", domain.ErrConfigMissing)
	}
	if tab == "" {
		return nil, fmt.Errorf("%w: sheets.export_tab", domain.ErrConfigMissing)
	}
	if s.sheets == nil {
		return nil, fmt.Errorf("%w: sheets.service_account_key", domain.ErrConfigMissing)
	}
	logger.Section("Export to " + tab)

	set, warnings, enrichedCount, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	data := make([][]any, len(set.Rows))
	for i, r := range set.Rows {
		data[i] = sheetValues(r, set.Columns)
	}

	formats := ColumnFormats(set.Columns, s.cfg.Sheets)
	if err := s.WriteTable(ctx, id, tab, set.Columns, data, formats); err != nil {
		return nil, err
	}

	result := &driving.ExportResult{
		SpreadsheetID: id,
		Tab:           tab,
		Rows:          len(data),
		Columns:       len(set.Columns),
		Enriched:      enrichedCount,
		Warnings:      warnings,
	}

	if s.cfg.Sheets.Verify {
		ok, err := s.verify(ctx, id, tab, set.Columns, data)
		if err != nil {
			logger.Warn("export verification failed: %v", err)
			result.Warnings = append(result.Warnings, "verification failed: "+err.Error())
		} else {
			result.Verified = &ok
			if !ok {
				result.Warnings = append(result.Warnings, "written data does not match the extraction")
			}
		}
	}

	logger.Info("export: wrote %d rows x %d columns to %s", result.Rows, result.Columns, tab)
	return result, nil
}

// WriteTable fully overwrites a tab: ensure it exists, clear it, write the
// header and rows from the first cell in batches, then apply formats.
func (s *ExportService) WriteTable(
	ctx context.Context,
	spreadsheetID, tab string,
	headers []string,
	rows [][]any,
	formats map[int]domain.ColumnFormat,
) error {
	if err := s.sheets.EnsureTab(ctx, spreadsheetID, tab); err != nil {
		return fmt.Errorf("ensure tab %s: %w", tab, err)
	}
	if err := s.sheets.Clear(ctx, spreadsheetID, tab); err != nil {
		return fmt.Errorf("clear tab %s: %w", tab, err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := s.sheets.WriteRows(ctx, spreadsheetID, tab, 1, [][]any{header}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	batch := s.cfg.Sheets.BatchSize
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		if err := s.sheets.WriteRows(ctx, spreadsheetID, tab, start+2, rows[start:end]); err != nil {
			return fmt.Errorf("write rows %d-%d: %w", start+1, end, err)
		}
		logger.Debug("export: wrote rows %d-%d", start+1, end)
	}

	if len(formats) > 0 && len(rows) > 0 {
		if err := s.sheets.FormatColumns(ctx, spreadsheetID, tab, formats); err != nil {
			return fmt.Errorf("format columns: %w", err)
		}
	}
	return nil
}

// DownloadExcel builds a workbook of the records in a folder and status.
// Empty filters select everything.
func (s *ExportService) DownloadExcel(ctx context.Context, req driving.DownloadRequest) (*driving.Download, error) {
	set, _, _, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	rows := set.Rows
	if req.FolderID != "" {
		rows = domain.FilterEquals(rows, s.cfg.FolderField, req.FolderID)
	}
	if req.StatusID != "" {
		rows = domain.FilterEquals(rows, s.cfg.StatusField, req.StatusID)
	}

	data, err := s.workbook.Build("Requests", columnsOf(set.Columns), rows)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	name := "requests"
	if req.FolderID != "" {
		name += "_" + req.FolderID
	}
	if req.StatusID != "" {
		name += "_" + req.StatusID
	}
	logger.Info("download: %d rows in %s.xlsx", len(rows), name)
	return &driving.Download{
		FileName:    name + ".xlsx",
		ContentType: driven.XLSXContentType,
		Data:        data,
		Rows:        len(rows),
	}, nil
}

// collect extracts and enriches the full record set.
func (s *ExportService) collect(ctx context.Context) (domain.RecordSet, []string, int, error) {
	set, err := s.records.Extract(ctx, s.cfg.Query, s.cfg.RowLimit)
	if err != nil {
		return domain.RecordSet{}, nil, 0, fmt.Errorf("extract records: %w", err)
	}
	if s.enricher == nil {
		return set, nil, 0, nil
	}
	enriched, err := s.enricher.Enrich(ctx, set.Rows, s.cfg.Rules)
	if err != nil {
		return domain.RecordSet{}, nil, 0, fmt.Errorf("enrich records: %w", err)
	}
	return domain.RecordSet{
		Columns: set.WithColumns(enriched.Columns...),
		Rows:    enriched.Rows,
	}, enriched.Warnings, enriched.Enriched, nil
}

// verify reads the tab back and compares the row count and the first rows.
func (s *ExportService) verify(ctx context.Context, id, tab string, headers []string, rows [][]any) (bool, error) {
	grid, err := s.sheets.ReadTable(ctx, id, tab)
	if err != nil {
		return false, fmt.Errorf("read back %s: %w", tab, err)
	}
	if len(grid) != len(rows)+1 {
		logger.Warn("export verify: expected %d rows, found %d", len(rows)+1, len(grid))
		return false, nil
	}
	for i := 0; i < len(rows) && i < verifySampleRows; i++ {
		got := domain.PadCells(grid[i+1], len(headers))
		for j := range headers {
			if normalizeCell(got[j]) != normalizeCell(rows[i][j]) {
				logger.Warn("export verify: row %d column %s differs", i+2, headers[j])
				return false, nil
			}
		}
	}
	return true, nil
}

// ColumnFormats maps configured text and date columns to their indices.
// Columns missing from headers are skipped.
func ColumnFormats(headers []string, cfg domain.SheetsSettings) map[int]domain.ColumnFormat {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	formats := make(map[int]domain.ColumnFormat)
	for _, name := range cfg.TextColumns {
		if i, ok := index[name]; ok {
			formats[i] = domain.ColumnFormat{Column: name, Kind: domain.FormatText}
		}
	}
	for _, name := range cfg.DateColumns {
		if i, ok := index[name]; ok {
			formats[i] = domain.ColumnFormat{Column: name, Kind: domain.FormatDateTime, Pattern: cfg.DatePattern}
		}
	}
	return formats
}

// sheetValues returns a record's cells, nil values as empty strings.
func sheetValues(r domain.Record, columns []string) []any {
	values := r.Values(columns)
	for i, v := range values {
		if v == nil {
			values[i] = ""
		}
	}
	return values
}

// normalizeCell makes written and read-back cells comparable.
func normalizeCell(v any) string {
	text := strings.TrimSpace(domain.FormatValue(v))
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
