package driven

import "github.com/custodia-labs/reqbridge/internal/core/domain"

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WorkbookBuilder renders records into a styled spreadsheet file.
type WorkbookBuilder interface {
	// Build returns the workbook bytes. Columns fix order and header labels.
	Build(sheet string, columns []domain.AttachmentColumn, rows []domain.Record) ([]byte, error)
}
