package driving

import "context"

// ExportRequest overrides the configured export target.
type ExportRequest struct {
	SpreadsheetID string `json:"spreadsheetId,omitempty"`
	Tab           string `json:"tab,omitempty"`
}

// ExportResult reports an export run.
type ExportResult struct {
	SpreadsheetID string   `json:"spreadsheetId"`
	Tab           string   `json:"tab"`
	Rows          int      `json:"rows"`
	Columns       int      `json:"columns"`
	Enriched      int      `json:"enriched"`
	Verified      *bool    `json:"verified,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// DownloadRequest selects the records for an XLSX download.
type DownloadRequest struct {
	FolderID string
	StatusID string
}

// Download is a generated workbook.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService moves extracted records to the spreadsheet or a workbook.
type ExportService interface {
	// ExportToSheet rewrites the export tab with the enriched extraction.
	ExportToSheet(ctx context.Context, req ExportRequest) (*ExportResult, error)

	// DownloadExcel builds a workbook of the selected records.
	DownloadExcel(ctx context.Context, req DownloadRequest) (*Download, error)
}
