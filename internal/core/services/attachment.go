package services

import (
	"sort"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// ShapeAttachment applies an attachment template's filter, grouping and
// column selection to records. When the template lists no columns the
// fallback columns are used with their field names as labels.
func ShapeAttachment(
	tpl domain.AttachmentTemplate,
	rows []domain.Record,
	fallback []string,
) ([]domain.AttachmentColumn, []domain.Record) {
	filtered := rows
	fields := make([]string, 0, len(tpl.Filter))
	for field := range tpl.Filter {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		filtered = domain.FilterEquals(filtered, field, tpl.Filter[field])
	}

	if tpl.GroupBy != "" {
		filtered = groupStable(filtered, tpl.GroupBy)
	}

	columns := tpl.Columns
	if len(columns) == 0 {
		columns = make([]domain.AttachmentColumn, 0, len(fallback))
		for _, f := range fallback {
			columns = append(columns, domain.AttachmentColumn{Field: f})
		}
	}
	return columns, filtered
}

// groupStable reorders rows so that equal values of field are adjacent.
// Groups keep the order in which they were first seen, rows keep their
// relative order within a group.
func groupStable(rows []domain.Record, field string) []domain.Record {
	var order []string
	groups := make(map[string][]domain.Record)
	for _, r := range rows {
		key := r.String(field)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	out := make([]domain.Record, 0, len(rows))
	for _, key := range order {
		out = append(out, groups[key]...)
	}
	return out
}
