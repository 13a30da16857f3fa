package domain

import "strings"

// Recipients is the static address list of a scenario.
type Recipients struct {
	To  []string `json:"to" yaml:"to"`
	CC  []string `json:"cc,omitempty" yaml:"cc,omitempty"`
	BCC []string `json:"bcc,omitempty" yaml:"bcc,omitempty"`
}

// IsEmpty reports whether no primary recipient is configured.
func (r Recipients) IsEmpty() bool {
	return len(r.To) == 0
}

// Scenario is a named notification workflow: who gets mail for which
// request status, with which template and attachment, and its own
// dedup bucket in the history log.
type Scenario struct {
	// ID is the history bucket and the scenario's name (e.g. "kam_notification").
	ID string `json:"id" yaml:"id"`
	// StatusID selects the records this scenario notifies about.
	StatusID string `json:"status_id" yaml:"status_id"`
	// CategoryID optionally narrows the scenario to one product category.
	CategoryID string     `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Recipients Recipients `json:"recipients" yaml:"recipients"`
	Subject    string     `json:"subject" yaml:"subject"`
	// Template is the path of the HTML body template.
	Template string `json:"template" yaml:"template"`
	// Attachment names an AttachmentTemplate; empty means no attachment.
	Attachment string `json:"attachment,omitempty" yaml:"attachment,omitempty"`
	// RecipientColumn, when set, takes recipients from this record column
	// instead of the static list.
	RecipientColumn string `json:"recipient_column,omitempty" yaml:"recipient_column,omitempty"`
}

// UsesColumnRecipients reports whether recipients come from record data.
func (s Scenario) UsesColumnRecipients() bool {
	return s.RecipientColumn != ""
}

// Matches reports whether the scenario serves a status and category.
func (s Scenario) Matches(statusID, categoryID string) bool {
	return s.StatusID == statusID && s.CategoryID == categoryID
}

// AttachmentColumn selects one record field for a workbook and its header label.
type AttachmentColumn struct {
	Field string `json:"field" yaml:"field"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Header returns the label, falling back to the field name.
func (c AttachmentColumn) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Field
}

// AttachmentTemplate describes how records are shaped into a workbook.
type AttachmentTemplate struct {
	Name string `json:"name" yaml:"name"`
	// Sheet is the data sheet name inside the workbook.
	Sheet   string             `json:"sheet" yaml:"sheet"`
	Columns []AttachmentColumn `json:"columns,omitempty" yaml:"columns,omitempty"`
	// Filter keeps only records whose fields equal these values (string comparison).
	Filter map[string]string `json:"filter,omitempty" yaml:"filter,omitempty"`
	// GroupBy orders records so rows sharing this field are adjacent,
	// groups appearing in first-seen order.
	GroupBy string `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	// FileName is the attachment file name.
	FileName string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
}

// AttachmentFileName returns the file name for the generated workbook.
func (t AttachmentTemplate) AttachmentFileName() string {
	name := t.FileName
	if name == "" {
		name = t.Name
	}
	if name == "" {
		name = "export"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}

// ScenarioCatalog is the full scenario configuration for one request.
type ScenarioCatalog struct {
	Scenarios   []Scenario
	Attachments map[string]AttachmentTemplate
}

// Find returns the scenario for a status and category.
// An exact category match wins; otherwise a scenario without a category is used.
func (c ScenarioCatalog) Find(statusID, categoryID string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.Matches(statusID, categoryID) {
			return s, true
		}
	}
	if categoryID != "" {
		for _, s := range c.Scenarios {
			if s.Matches(statusID, "") {
				return s, true
			}
		}
	}
	return Scenario{}, false
}

// Attachment returns the named attachment template.
func (c ScenarioCatalog) Attachment(name string) (AttachmentTemplate, bool) {
	t, ok := c.Attachments[name]
	if ok && t.Name == "" {
		t.Name = name
	}
	return t, ok
}
