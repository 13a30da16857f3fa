package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Ensure SheetScenarioSource implements the interface.
var _ driven.ScenarioSource = (*SheetScenarioSource)(nil)

// Columns of the sheet-resident mail configuration table.
const (
	colProcessID     = "Process_id"
	colCategoryID    = "Category_id"
	colToMail        = "To_mail"
	colCCMail        = "CC_mail"
	colHasXLSX       = "Has_xlsx"
	colXLSXTemplate  = "Xlsx_template"
	colEmailTemplate = "Email_template"
	colUseColumnData = "Use_column_data"
)

// SheetScenarioSource reads scenarios from a spreadsheet tab on every call.
type SheetScenarioSource struct {
	sheets        driven.SheetStore
	spreadsheetID string
	tab           string
	attachments   map[string]domain.AttachmentTemplate
}

// NewSheetScenarioSource creates a scenario source over a mail configuration tab.
// attachments supplies templates referenced by Xlsx_template; unknown names
// produce a workbook of all columns.
func NewSheetScenarioSource(
	sheets driven.SheetStore,
	spreadsheetID, tab string,
	attachments map[string]domain.AttachmentTemplate,
) *SheetScenarioSource {
	return &SheetScenarioSource{
		sheets:        sheets,
		spreadsheetID: spreadsheetID,
		tab:           tab,
		attachments:   attachments,
	}
}

// Catalog reads and parses the configuration tab.
func (s *SheetScenarioSource) Catalog(ctx context.Context) (domain.ScenarioCatalog, error) {
	rows, err := s.sheets.ReadRows(ctx, s.spreadsheetID, s.tab)
	if err != nil {
		return domain.ScenarioCatalog{}, fmt.Errorf("read scenario tab %s: %w", s.tab, err)
	}
	catalog := ParseScenarioRows(rows)
	catalog.Attachments = s.attachments
	return catalog, nil
}

// ParseScenarioRows merges configuration rows into scenarios.
//
// Rows sharing (Process_id, Category_id) form one scenario; their To_mail
// and CC_mail cells are concatenated. Use_column_data either names the
// record column holding recipient addresses, or, when it is a yes/true flag,
// means To_mail holds that column name. Rows without a Process_id are skipped.
func ParseScenarioRows(rows []domain.SheetRow) domain.ScenarioCatalog {
	var catalog domain.ScenarioCatalog
	index := make(map[string]int)

	for _, row := range rows {
		r := row.Record
		process := strings.TrimSpace(r.String(colProcessID))
		if process == "" {
			continue
		}
		category := strings.TrimSpace(r.String(colCategoryID))
		key := process + "\x00" + category

		i, ok := index[key]
		if !ok {
			id := "process_" + process
			if category != "" {
				id += "_" + category
			}
			catalog.Scenarios = append(catalog.Scenarios, domain.Scenario{
				ID:         id,
				StatusID:   process,
				CategoryID: category,
			})
			i = len(catalog.Scenarios) - 1
			index[key] = i
		}
		sc := &catalog.Scenarios[i]

		toMail := strings.TrimSpace(r.String(colToMail))
		switch column := strings.TrimSpace(r.String(colUseColumnData)); {
		case column == "" || isFalse(column):
			if toMail != "" {
				sc.Recipients.To = append(sc.Recipients.To, toMail)
			}
		case isTrue(column):
			sc.RecipientColumn = toMail
		default:
			sc.RecipientColumn = column
			if toMail != "" {
				sc.Recipients.To = append(sc.Recipients.To, toMail)
			}
		}
		if cc := strings.TrimSpace(r.String(colCCMail)); cc != "" {
			sc.Recipients.CC = append(sc.Recipients.CC, cc)
		}
		if tpl := strings.TrimSpace(r.String(colEmailTemplate)); tpl != "" {
			sc.Template = tpl
		}
		if isTrue(r.String(colHasXLSX)) {
			sc.Attachment = strings.TrimSpace(r.String(colXLSXTemplate))
			if sc.Attachment == "" {
				sc.Attachment = sc.ID
			}
		}
	}
	return catalog
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "x", "да":
		return true
	}
	return false
}

func isFalse(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no", "n", "нет":
		return true
	}
	return false
}
