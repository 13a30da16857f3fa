package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqbridge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

func validConfig() map[string]any {
	return map[string]any{
		KeyDBHost:        "db.local",
		KeyDBName:        "requests",
		KeyDBUser:        "etl",
		KeyMailFrom:      "noreply@example.com",
		KeySMTPHost:      "smtp.example.com",
		KeyScenarioFile:  "config/scenarios.yaml",
		KeyHistoryMaxAge: 0,
	}
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil))

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Database.Port, settings.Database.Port)
	assert.Equal(t, defaults.Sheets.ExportTab, settings.Sheets.ExportTab)
	assert.Equal(t, defaults.Sheets.BatchSize, settings.Sheets.BatchSize)
	assert.Equal(t, defaults.Mail.Transport, settings.Mail.Transport)
	assert.Equal(t, defaults.History, settings.History)
	assert.Equal(t, defaults.Pipeline, settings.Pipeline)
	assert.Equal(t, ":8080", settings.Addr)
	assert.Empty(t, settings.Scripts)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		KeyDBHost:        "pg",
		KeyDBPort:        "6432",
		KeySpreadsheetID: "abc",
		KeyTextColumns:   "request_position_id, code",
		KeyVerify:        "true",
		KeyDirURL:        "https://sso.example.com/",
		KeyDirRate:       "2.5",
		KeyHistoryMaxAge: 0,
		KeyMailTransport: "gmail",
		KeyArchiveFolder: "folder-1",
		KeyAttachFile:    "config/attachments.yaml",
	})
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "pg", settings.Database.Host)
	assert.Equal(t, 6432, settings.Database.Port)
	assert.Equal(t, "abc", settings.Sheets.SpreadsheetID)
	assert.Equal(t, []string{"request_position_id", "code"}, settings.Sheets.TextColumns)
	assert.True(t, settings.Sheets.Verify)
	assert.Equal(t, "https://sso.example.com", settings.Directory.BaseURL)
	assert.InDelta(t, 2.5, settings.Directory.RequestsPerSecond, 1e-9)
	assert.Equal(t, 0, settings.History.MaxAgeDays)
	assert.Equal(t, domain.MailTransportGmail, settings.Mail.Transport)
	assert.Equal(t, "folder-1", settings.Pipeline.ArchiveFolderID)
	assert.Equal(t, "config/attachments.yaml", settings.Pipeline.AttachmentsFile)
}

func TestSettingsService_Scripts(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"scripts.reindex.command":  []any{"./bin/reindex.sh", "--all"},
		"scripts.reindex.timeout":  "10m",
		"scripts.cleanup.command":  "cleanup.sh",
		"scripts.bad.name.command": "ignored",
	})

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	require.Len(t, settings.Scripts, 2)
	assert.Equal(t, domain.Script{Name: "cleanup", Command: []string{"cleanup.sh"}}, settings.Scripts[0])
	assert.Equal(t, domain.Script{Name: "reindex", Command: []string{"./bin/reindex.sh", "--all"}, Timeout: 10 * time.Minute}, settings.Scripts[1])
}

func TestSettingsService_ScriptTimeoutInvalid(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"scripts.x.command": "x",
		"scripts.x.timeout": "soon",
	})

	_, err := NewSettingsService(store).Get()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(validConfig()))
	settings, err := service.Get()
	require.NoError(t, err)

	assert.NoError(t, service.Validate(settings))
}

func TestSettingsService_ValidateMissing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr error
		wantKey string
	}{
		{"db host", func(c map[string]any) { delete(c, KeyDBHost) }, domain.ErrConfigMissing, KeyDBHost},
		{"mail from", func(c map[string]any) { delete(c, KeyMailFrom) }, domain.ErrConfigMissing, KeyMailFrom},
		{"smtp host", func(c map[string]any) { delete(c, KeySMTPHost) }, domain.ErrConfigMissing, KeySMTPHost},
		{"gmail key", func(c map[string]any) { c[KeyMailTransport] = "gmail" }, domain.ErrConfigMissing, KeyServiceKey},
		{"sheet key", func(c map[string]any) { c[KeySpreadsheetID] = "abc" }, domain.ErrConfigMissing, KeyServiceKey},
		{"scenarios", func(c map[string]any) { delete(c, KeyScenarioFile) }, domain.ErrConfigMissing, KeyScenarioFile},
		{"transport", func(c map[string]any) { c[KeyMailTransport] = "pigeon" }, domain.ErrInvalidInput, "mail.transport"},
		{"backend", func(c map[string]any) { c[KeyHistoryBack] = "redis" }, domain.ErrInvalidInput, "history.backend"},
		{"directory user", func(c map[string]any) { c[KeyDirURL] = "https://sso" }, domain.ErrConfigMissing, KeyDirUser},
		{"timezone", func(c map[string]any) { c[KeyDBTimezone] = "Mars/Olympus" }, domain.ErrInvalidInput, KeyDBTimezone},
		{"batch", func(c map[string]any) { c[KeyBatchSize] = 0 }, domain.ErrInvalidInput, "sheets.batch_size"},
		{"script", func(c map[string]any) { c["scripts.x.command"] = "" }, domain.ErrConfigMissing, "scripts.x.command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			service := NewSettingsService(memory.NewConfigStore(cfg))
			settings, err := service.Get()
			require.NoError(t, err)

			err = service.Validate(settings)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil))
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store)

	require.NoError(t, service.Set(KeyDBPort, "6432"))
	require.NoError(t, service.Set(KeyVerify, "false"))
	require.NoError(t, service.Set(KeyDirRate, "2.5"))
	require.NoError(t, service.Set(KeyTextColumns, "inn, phone,,"))
	require.NoError(t, service.Set(KeyMailFrom, " robot@example.com "))
	require.NoError(t, service.Set("scripts.vacuum.command", "psql,-c,vacuum"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 6432, settings.Database.Port)
	assert.False(t, settings.Sheets.Verify)
	assert.InDelta(t, 2.5, settings.Directory.RequestsPerSecond, 0.001)
	assert.Equal(t, []string{"inn", "phone"}, settings.Sheets.TextColumns)
	assert.Equal(t, "robot@example.com", settings.Mail.From)
	require.Len(t, settings.Scripts, 1)
	assert.Equal(t, []string{"psql", "-c", "vacuum"}, settings.Scripts[0].Command)
}

func TestSettingsService_SetRejects(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil))

	tests := []struct {
		key string
		raw string
	}{
		{key: "database.hostname", raw: "x"},
		{key: "scripts..command", raw: "x"},
		{key: "scripts.vacuum.env", raw: "x"},
		{key: KeyDBPort, raw: "five"},
		{key: KeyVerify, raw: "maybe"},
	}

	for _, tt := range tests {
		err := service.Set(tt.key, tt.raw)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, tt.key)
	}
	assert.Empty(t, service.configStore.Keys())
}
