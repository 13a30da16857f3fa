package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqbridge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

var mailConfigHeader = []any{
	"Process_id", "Category_id", "To_mail", "To_name", "CC_mail", "CC_name",
	"Has_xlsx", "Xlsx_template", "Email_template", "Use_column_data",
}

func TestSheetScenarioSource_Catalog(t *testing.T) {
	sheets := memory.NewSheetStore()
	sheets.SetTable("cfg", "Mail_config", [][]any{
		mailConfigHeader,
		{"7", "", "kam@example.com", "KAM", "lead@example.com", "Lead", "TRUE", "kam", "kam.html", ""},
		{"7", "", "kam2@example.com", "KAM 2", "", "", "", "", "", ""},
		{"9", "3", "responsible_email", "", "", "", "no", "", "", "yes"},
		{"11", "", "ops@example.com", "", "", "", "", "", "", "owner_email"},
		{"", "", "orphan@example.com", "", "", "", "", "", "", ""},
	})
	attachments := map[string]domain.AttachmentTemplate{"kam": {Sheet: "Requests"}}
	source := NewSheetScenarioSource(sheets, "cfg", "Mail_config", attachments)

	catalog, err := source.Catalog(context.Background())

	require.NoError(t, err)
	require.Len(t, catalog.Scenarios, 3)

	kam := catalog.Scenarios[0]
	assert.Equal(t, "process_7", kam.ID)
	assert.Equal(t, []string{"kam@example.com", "kam2@example.com"}, kam.Recipients.To)
	assert.Equal(t, []string{"lead@example.com"}, kam.Recipients.CC)
	assert.Equal(t, "kam", kam.Attachment)
	assert.Equal(t, "kam.html", kam.Template)
	assert.False(t, kam.UsesColumnRecipients())

	icpu := catalog.Scenarios[1]
	assert.Equal(t, "process_9_3", icpu.ID)
	assert.Equal(t, "3", icpu.CategoryID)
	assert.Equal(t, "responsible_email", icpu.RecipientColumn)
	assert.Empty(t, icpu.Recipients.To)
	assert.Empty(t, icpu.Attachment)

	ops := catalog.Scenarios[2]
	assert.Equal(t, "owner_email", ops.RecipientColumn)
	assert.Equal(t, []string{"ops@example.com"}, ops.Recipients.To)

	found, ok := catalog.Find("9", "3")
	require.True(t, ok)
	assert.Equal(t, "process_9_3", found.ID)
	tpl, ok := catalog.Attachment("kam")
	require.True(t, ok)
	assert.Equal(t, "Requests", tpl.Sheet)
}

func TestSheetScenarioSource_MissingTab(t *testing.T) {
	source := NewSheetScenarioSource(memory.NewSheetStore(), "cfg", "Mail_config", nil)

	_, err := source.Catalog(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseScenarioRows_XLSXWithoutTemplateName(t *testing.T) {
	row := domain.NewSheetRow(
		domain.HeaderNames(mailConfigHeader),
		[]any{"5", "", "a@example.com", "", "", "", "1", "", "", ""},
		2,
	)

	catalog := ParseScenarioRows([]domain.SheetRow{row})

	require.Len(t, catalog.Scenarios, 1)
	assert.Equal(t, "process_5", catalog.Scenarios[0].Attachment)
}
