package services

import (
	_ "embed"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// DefaultTemplate is the body used when a scenario's template cannot be found.
//
//go:embed templates/default.html
var DefaultTemplate string

// DefaultSubject is used when a scenario has no subject.
const DefaultSubject = "#{scenario}: #{count} new request(s)"

var placeholder = regexp.MustCompile(`#\{([A-Za-z0-9_.\-]+)\}`)

// RenderTemplate substitutes #{name} placeholders. Unknown names are left as written.
func RenderTemplate(text string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(token string) string {
		name := placeholder.FindStringSubmatch(token)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// TemplateVars are the placeholder values for one notification body.
// Fields of the first record are available under their own names, HTML escaped.
func TemplateVars(
	s domain.Scenario,
	columns []domain.AttachmentColumn,
	rows []domain.Record,
	ids []domain.RecordID,
	now time.Time,
) map[string]string {
	vars := baseVars(s, rows, ids, now, html.EscapeString)
	vars["table"] = RecordsTable(columns, rows)
	return vars
}

// SubjectVars are the placeholder values for a subject line: record fields
// as plain text with line breaks flattened, and no table.
func SubjectVars(s domain.Scenario, rows []domain.Record, ids []domain.RecordID, now time.Time) map[string]string {
	return baseVars(s, rows, ids, now, headerText.Replace)
}

var headerText = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func baseVars(
	s domain.Scenario,
	rows []domain.Record,
	ids []domain.RecordID,
	now time.Time,
	field func(string) string,
) map[string]string {
	vars := make(map[string]string)
	if len(rows) > 0 {
		for name := range rows[0] {
			vars[name] = field(rows[0].String(name))
		}
	}

	idText := make([]string, len(ids))
	for i, id := range ids {
		idText[i] = id.String()
	}

	vars["scenario"] = s.ID
	vars["status"] = s.StatusID
	vars["category"] = s.CategoryID
	vars["count"] = strconv.Itoa(len(rows))
	vars["date"] = now.Format("02.01.2006")
	vars["ids"] = strings.Join(idText, ", ")
	return vars
}

// RecordsTable renders records as a bordered HTML table.
func RecordsTable(columns []domain.AttachmentColumn, rows []domain.Record) string {
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="4" cellspacing="0" style="border-collapse: collapse;">` + "\n")
	b.WriteString("<tr>")
	for _, c := range columns {
		b.WriteString("<th>" + html.EscapeString(c.Header()) + "</th>")
	}
	b.WriteString("</tr>\n")
	for _, r := range rows {
		b.WriteString("<tr>")
		for _, c := range columns {
			b.WriteString("<td>" + html.EscapeString(r.String(c.Field)) + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>")
	return b.String()
}
