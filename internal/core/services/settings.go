package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyDBHost        = "database.host"
	KeyDBPort        = "database.port"
	KeyDBName        = "database.name"
	KeyDBUser        = "database.user"
	KeyDBPassword    = "database.password"
	KeyDBSSLMode     = "database.sslmode"
	KeyDBQueryFile   = "database.query_file"
	KeyDBRowLimit    = "database.row_limit"
	KeyDBTimezone    = "database.timezone"
	KeySpreadsheetID = "sheets.spreadsheet_id"
	KeyServiceKey    = "sheets.service_account_key"
	KeyExportTab     = "sheets.export_tab"
	KeyScenarioTab   = "sheets.scenario_tab"
	KeyProvisionTab  = "sheets.provisioning_tab"
	KeyBatchSize     = "sheets.batch_size"
	KeyVerify        = "sheets.verify"
	KeyTextColumns   = "sheets.text_columns"
	KeyDateColumns   = "sheets.date_columns"
	KeyDatePattern   = "sheets.date_pattern"
	KeyDirURL        = "directory.base_url"
	KeyDirRealm      = "directory.realm"
	KeyDirClientID   = "directory.client_id"
	KeyDirUser       = "directory.admin_user"
	KeyDirPassword   = "directory.admin_password"
	KeyDirRate       = "directory.requests_per_second"
	KeyMailTransport = "mail.transport"
	KeyMailFrom      = "mail.from"
	KeySMTPHost      = "mail.smtp_host"
	KeySMTPPort      = "mail.smtp_port"
	KeySMTPUser      = "mail.smtp_user"
	KeySMTPPassword  = "mail.smtp_password"
	KeyTestRecipient = "mail.test_recipient"
	KeyTemplateDir   = "mail.template_dir"
	KeyHistoryBack   = "history.backend"
	KeyHistoryPath   = "history.path"
	KeyHistoryMaxAge = "history.max_age_days"
	KeyIDField       = "pipeline.id_field"
	KeyStatusField   = "pipeline.status_field"
	KeyFolderField   = "pipeline.folder_field"
	KeyCategoryField = "pipeline.category_field"
	KeyChangeField   = "pipeline.change_field"
	KeyResponsible   = "pipeline.responsible_field"
	KeyCreatorField  = "pipeline.creator_id_field"
	KeyScenarioFile  = "pipeline.scenario_file"
	KeyAttachFile    = "pipeline.attachments_file"
	KeyArchiveFolder = "drive.archive_folder_id"
	KeyAddr          = "server.addr"

	scriptPrefix = "scripts."
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

// settingKinds lists the keys Set accepts and how their values are parsed.
var settingKinds = map[string]valueKind{
	KeyDBHost: kindString, KeyDBPort: kindInt, KeyDBName: kindString, KeyDBUser: kindString,
	KeyDBPassword: kindString, KeyDBSSLMode: kindString, KeyDBQueryFile: kindString,
	KeyDBRowLimit: kindInt, KeyDBTimezone: kindString, KeySpreadsheetID: kindString, KeyServiceKey: kindString,
	KeyExportTab: kindString, KeyScenarioTab: kindString, KeyProvisionTab: kindString,
	KeyBatchSize: kindInt, KeyVerify: kindBool, KeyTextColumns: kindList,
	KeyDateColumns: kindList, KeyDatePattern: kindString, KeyDirURL: kindString,
	KeyDirRealm: kindString, KeyDirClientID: kindString, KeyDirUser: kindString,
	KeyDirPassword: kindString, KeyDirRate: kindFloat, KeyMailTransport: kindString,
	KeyMailFrom: kindString, KeySMTPHost: kindString, KeySMTPPort: kindInt,
	KeySMTPUser: kindString, KeySMTPPassword: kindString, KeyTestRecipient: kindString,
	KeyTemplateDir: kindString, KeyHistoryBack: kindString, KeyHistoryPath: kindString,
	KeyHistoryMaxAge: kindInt, KeyIDField: kindString, KeyStatusField: kindString,
	KeyFolderField: kindString, KeyCategoryField: kindString, KeyChangeField: kindString,
	KeyResponsible: kindString, KeyCreatorField: kindString, KeyScenarioFile: kindString,
	KeyAttachFile: kindString, KeyArchiveFolder: kindString, KeyAddr: kindString,
}

// SettingsService resolves typed settings from a config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, defaults filled in.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Database: domain.DatabaseSettings{
			Host:      s.getString(KeyDBHost, d.Database.Host),
			Port:      s.getInt(KeyDBPort, d.Database.Port),
			Name:      s.getString(KeyDBName, d.Database.Name),
			User:      s.getString(KeyDBUser, d.Database.User),
			Password:  s.configStore.GetString(KeyDBPassword),
			SSLMode:   s.getString(KeyDBSSLMode, d.Database.SSLMode),
			QueryFile: s.configStore.GetString(KeyDBQueryFile),
			RowLimit:  s.getInt(KeyDBRowLimit, d.Database.RowLimit),
			Timezone:  s.configStore.GetString(KeyDBTimezone),
		},
		Sheets: domain.SheetsSettings{
			SpreadsheetID:     s.configStore.GetString(KeySpreadsheetID),
			ServiceAccountKey: s.configStore.GetString(KeyServiceKey),
			ExportTab:         s.getString(KeyExportTab, d.Sheets.ExportTab),
			ScenarioTab:       s.getString(KeyScenarioTab, d.Sheets.ScenarioTab),
			ProvisioningTab:   s.getString(KeyProvisionTab, d.Sheets.ProvisioningTab),
			BatchSize:         s.getInt(KeyBatchSize, d.Sheets.BatchSize),
			Verify:            s.getBool(KeyVerify, d.Sheets.Verify),
			TextColumns:       s.configStore.GetStringSlice(KeyTextColumns),
			DateColumns:       s.configStore.GetStringSlice(KeyDateColumns),
			DatePattern:       s.getString(KeyDatePattern, d.Sheets.DatePattern),
		},
		Directory: domain.DirectorySettings{
			BaseURL:           strings.TrimRight(s.configStore.GetString(KeyDirURL), "/"),
			Realm:             s.getString(KeyDirRealm, d.Directory.Realm),
			ClientID:          s.getString(KeyDirClientID, d.Directory.ClientID),
			AdminUser:         s.configStore.GetString(KeyDirUser),
			AdminPassword:     s.configStore.GetString(KeyDirPassword),
			RequestsPerSecond: s.getFloat(KeyDirRate, d.Directory.RequestsPerSecond),
		},
		Mail: domain.MailSettings{
			Transport:     domain.MailTransport(s.getString(KeyMailTransport, string(d.Mail.Transport))),
			From:          s.configStore.GetString(KeyMailFrom),
			SMTPHost:      s.configStore.GetString(KeySMTPHost),
			SMTPPort:      s.getInt(KeySMTPPort, d.Mail.SMTPPort),
			SMTPUser:      s.configStore.GetString(KeySMTPUser),
			SMTPPassword:  s.configStore.GetString(KeySMTPPassword),
			TestRecipient: s.configStore.GetString(KeyTestRecipient),
			TemplateDir:   s.getString(KeyTemplateDir, d.Mail.TemplateDir),
		},
		History: domain.HistorySettings{
			Backend:    domain.HistoryBackend(s.getString(KeyHistoryBack, string(d.History.Backend))),
			Path:       s.getString(KeyHistoryPath, d.History.Path),
			MaxAgeDays: s.getInt(KeyHistoryMaxAge, d.History.MaxAgeDays),
		},
		Pipeline: domain.PipelineSettings{
			IDField:         s.getString(KeyIDField, d.Pipeline.IDField),
			StatusField:     s.getString(KeyStatusField, d.Pipeline.StatusField),
			FolderField:     s.getString(KeyFolderField, d.Pipeline.FolderField),
			CategoryField:   s.getString(KeyCategoryField, d.Pipeline.CategoryField),
			ChangeField:     s.getString(KeyChangeField, d.Pipeline.ChangeField),
			ResponsibleName: s.getString(KeyResponsible, d.Pipeline.ResponsibleName),
			CreatorIDField:  s.getString(KeyCreatorField, d.Pipeline.CreatorIDField),
			ScenarioFile:    s.configStore.GetString(KeyScenarioFile),
			AttachmentsFile: s.configStore.GetString(KeyAttachFile),
			ArchiveFolderID: s.configStore.GetString(KeyArchiveFolder),
		},
		Addr: s.getString(KeyAddr, d.Addr),
	}

	scripts, err := s.scripts()
	if err != nil {
		return nil, err
	}
	settings.Scripts = scripts
	return settings, nil
}

// scripts reads every scripts.<name>.command entry.
func (s *SettingsService) scripts() ([]domain.Script, error) {
	var names []string
	for _, key := range s.configStore.Keys() {
		if !strings.HasPrefix(key, scriptPrefix) || !strings.HasSuffix(key, ".command") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, scriptPrefix), ".command")
		if name != "" && !strings.Contains(name, ".") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	scripts := make([]domain.Script, 0, len(names))
	for _, name := range names {
		script := domain.Script{
			Name:    name,
			Command: s.configStore.GetStringSlice(scriptPrefix + name + ".command"),
		}
		if raw := s.configStore.GetString(scriptPrefix + name + ".timeout"); raw != "" {
			timeout, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: scripts.%s.timeout: %v", domain.ErrInvalidInput, name, err)
			}
			script.Timeout = timeout
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

// Validate checks that every value needed by the configured features is set.
//
//nolint:gocyclo // Flat list of independent checks
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	required := []struct {
		key   string
		value string
	}{
		{KeyDBHost, settings.Database.Host},
		{KeyDBName, settings.Database.Name},
		{KeyDBUser, settings.Database.User},
		{KeyMailFrom, settings.Mail.From},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", domain.ErrConfigMissing, r.key)
		}
	}

	if _, err := settings.Database.Location(); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, KeyDBTimezone, err)
	}
	if !settings.Mail.Transport.IsValid() {
		return fmt.Errorf("%w: mail.transport %q", domain.ErrInvalidInput, settings.Mail.Transport)
	}
	if settings.Mail.Transport == domain.MailTransportSMTP && settings.Mail.SMTPHost == "" {
		return fmt.Errorf("%w: %s", domain.ErrConfigMissing, KeySMTPHost)
	}
	needsGoogle := settings.Mail.Transport == domain.MailTransportGmail ||
		settings.Sheets.SpreadsheetID != "" ||
		settings.Pipeline.ArchiveFolderID != ""
	if needsGoogle && settings.Sheets.ServiceAccountKey == "" {
		return fmt.Errorf("%w: %s", domain.ErrConfigMissing, KeyServiceKey)
	}
	if settings.Pipeline.ScenarioFile == "" && settings.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("%w: %s or %s", domain.ErrConfigMissing, KeyScenarioFile, KeySpreadsheetID)
	}

	if !settings.History.Backend.IsValid() {
		return fmt.Errorf("%w: history.backend %q", domain.ErrInvalidInput, settings.History.Backend)
	}
	if settings.History.Path == "" {
		return fmt.Errorf("%w: %s", domain.ErrConfigMissing, KeyHistoryPath)
	}

	if settings.Directory.Enabled() {
		if settings.Directory.AdminUser == "" {
			return fmt.Errorf("%w: %s", domain.ErrConfigMissing, KeyDirUser)
		}
		if settings.Directory.AdminPassword == "" {
			return fmt.Errorf("%w: %s", domain.ErrConfigMissing, KeyDirPassword)
		}
	}

	if settings.Sheets.BatchSize <= 0 {
		return fmt.Errorf("%w: sheets.batch_size must be positive", domain.ErrInvalidInput)
	}
	for _, script := range settings.Scripts {
		if len(script.Command) == 0 {
			return fmt.Errorf("%w: scripts.%s.command", domain.ErrConfigMissing, script.Name)
		}
	}
	return nil
}

// Set parses raw for key and writes it to the config store.
// Lists are comma-separated. Script keys take scripts.<name>.command (a list)
// and scripts.<name>.timeout.
func (s *SettingsService) Set(key, raw string) error {
	kind, ok := settingKinds[key]
	if !ok {
		kind, ok = scriptKind(key)
	}
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value, err := parseSetting(kind, strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func scriptKind(key string) (valueKind, bool) {
	rest, ok := strings.CutPrefix(key, scriptPrefix)
	if !ok {
		return 0, false
	}
	name, field, ok := strings.Cut(rest, ".")
	if !ok || name == "" {
		return 0, false
	}
	switch field {
	case "command":
		return kindList, true
	case "timeout":
		return kindString, true
	}
	return 0, false
}

func parseSetting(kind valueKind, raw string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindBool:
		return strconv.ParseBool(raw)
	case kindList:
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return raw, nil
	}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, def bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetBool(key)
}
