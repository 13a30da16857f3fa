package domain

import (
	"fmt"
	"time"
)

// HistoryBackend selects where the notification history is kept.
type HistoryBackend string

// Available history backends.
const (
	// HistoryBackendFile is the single JSON document.
	HistoryBackendFile HistoryBackend = "file"
	// HistoryBackendSQLite is the embedded database with a uniqueness constraint.
	HistoryBackendSQLite HistoryBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b HistoryBackend) IsValid() bool {
	return b == HistoryBackendFile || b == HistoryBackendSQLite
}

// MailTransport selects how notifications are delivered.
type MailTransport string

// Available mail transports.
const (
	MailTransportSMTP  MailTransport = "smtp"
	MailTransportGmail MailTransport = "gmail"
)

// IsValid returns true if the transport is recognised.
func (t MailTransport) IsValid() bool {
	return t == MailTransportSMTP || t == MailTransportGmail
}

// DatabaseSettings configures the request database.
type DatabaseSettings struct {
	Host      string
	Port      int
	Name      string
	User      string
	Password  string
	SSLMode   string
	QueryFile string
	RowLimit  int
	// Timezone is the IANA zone the database's wall-clock timestamps are in.
	// Empty means UTC.
	Timezone string
}

// Location resolves Timezone.
func (d DatabaseSettings) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(d.Timezone)
}

// DSN returns a libpq-style connection string with a 10 second connect timeout.
func (d DatabaseSettings) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=10",
		d.Host, d.Port, d.Name, d.User, d.Password, sslMode)
}

// SheetsSettings configures the shared spreadsheet.
type SheetsSettings struct {
	SpreadsheetID     string
	ServiceAccountKey string
	ExportTab         string
	ScenarioTab       string
	ProvisioningTab   string
	BatchSize         int
	Verify            bool
	TextColumns       []string
	DateColumns       []string
	DatePattern       string
}

// DirectorySettings configures the identity directory.
type DirectorySettings struct {
	BaseURL       string
	Realm         string
	ClientID      string
	AdminUser     string
	AdminPassword string
	// RequestsPerSecond throttles sequential lookups.
	RequestsPerSecond float64
}

// Enabled reports whether a directory is configured.
func (d DirectorySettings) Enabled() bool {
	return d.BaseURL != ""
}

// MailSettings configures notification delivery.
type MailSettings struct {
	Transport     MailTransport
	From          string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	TestRecipient string
	TemplateDir   string
}

// HistorySettings configures the dedup log.
type HistorySettings struct {
	Backend    HistoryBackend
	Path       string
	MaxAgeDays int
}

// PipelineSettings configures extraction and enrichment fields.
type PipelineSettings struct {
	IDField         string
	StatusField     string
	FolderField     string
	CategoryField   string
	ChangeField     string
	ResponsibleName string
	CreatorIDField  string
	ScenarioFile    string
	// AttachmentsFile holds attachment templates for the spreadsheet
	// scenario table. A scenario file carries its own.
	AttachmentsFile string
	ArchiveFolderID string
}

// Script is an external maintenance command exposed over HTTP.
type Script struct {
	Name    string
	Command []string
	Timeout time.Duration
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Database  DatabaseSettings
	Sheets    SheetsSettings
	Directory DirectorySettings
	Mail      MailSettings
	History   HistorySettings
	Pipeline  PipelineSettings
	Scripts   []Script
	Addr      string
}

// DefaultAppSettings returns settings with every optional value defaulted.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Database: DatabaseSettings{Port: 5432, SSLMode: "disable", RowLimit: 1000},
		Sheets: SheetsSettings{
			ExportTab:       "Sheet1",
			ScenarioTab:     "Mail_config",
			ProvisioningTab: "Users",
			BatchSize:       500,
			DatePattern:     "dd.mm.yyyy hh:mm",
		},
		Directory: DirectorySettings{ClientID: "admin-cli", Realm: "master", RequestsPerSecond: 10},
		Mail:      MailSettings{Transport: MailTransportSMTP, SMTPPort: 587, TemplateDir: "templates"},
		History:   HistorySettings{Backend: HistoryBackendFile, Path: "data/notification_history.json", MaxAgeDays: 90},
		Pipeline: PipelineSettings{
			IDField:         DefaultIDField,
			StatusField:     "status_id",
			FolderField:     "folder_id",
			CategoryField:   "category_id",
			ChangeField:     "changeDateTime",
			ResponsibleName: "responsible",
			CreatorIDField:  "creator_id",
		},
		Addr: ":8080",
	}
}

// EnrichmentRule returns the enrichment rule built from the pipeline fields.
func (p PipelineSettings) EnrichmentRule() EnrichmentRule {
	return EnrichmentRule{NameField: p.ResponsibleName, IDField: p.CreatorIDField}
}
