package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
)

func setupServices(t *testing.T, svc *Services) {
	t.Helper()
	oldServices, oldBootstrap := services, bootstrap
	services, bootstrap = svc, nil
	t.Cleanup(func() {
		services, bootstrap = oldServices, oldBootstrap
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Flags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestSetup_UsesBootstrap(t *testing.T) {
	setupServices(t, nil)
	defer func() { configPath = "" }()
	var gotPath string
	var gotScope Scope
	bootstrap = func(_ context.Context, path string, scope Scope) (*Services, error) {
		gotPath, gotScope = path, scope
		return &Services{Scripts: fakeScripts{}}, nil
	}

	out, err := execute(t, "scripts", "--config", "custom.toml")

	require.NoError(t, err)
	assert.Equal(t, "custom.toml", gotPath)
	assert.Equal(t, ScopeFull, gotScope)
	assert.Contains(t, out, "vacuum")
}

func TestSetup_LocalScopeCommands(t *testing.T) {
	tests := []struct {
		args  []string
		scope Scope
	}{
		{args: []string{"settings"}, scope: ScopeLocal},
		{args: []string{"history", "show", "kam"}, scope: ScopeLocal},
		{args: []string{"history", "prune", "--older-than", "5"}, scope: ScopeLocal},
		{args: []string{"scripts"}, scope: ScopeFull},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			setupServices(t, nil)
			defer func() { pruneOlderThan = 0 }()
			var gotScope Scope = -1
			bootstrap = func(_ context.Context, _ string, scope Scope) (*Services, error) {
				gotScope = scope
				return &Services{
					Settings: &fakeSettings{settings: domain.DefaultAppSettings()},
					History:  &fakeHistory{},
					Scripts:  fakeScripts{},
				}, nil
			}

			_, err := execute(t, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.scope, gotScope)
		})
	}
}

func TestSettingsCmd_InvalidSettingsStillShown(t *testing.T) {
	setupServices(t, nil)
	bootstrap = func(_ context.Context, _ string, scope Scope) (*Services, error) {
		if scope != ScopeLocal {
			return nil, domain.ErrConfigMissing
		}
		return &Services{Settings: &fakeSettings{
			settings:    domain.DefaultAppSettings(),
			validateErr: errors.New("db.host: required configuration missing"),
		}}, nil
	}

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Database]")
	assert.Contains(t, out, "Warning: db.host: required configuration missing")
}

func TestSetup_BootstrapError(t *testing.T) {
	setupServices(t, nil)
	bootstrap = func(context.Context, string, Scope) (*Services, error) {
		return nil, domain.ErrConfigMissing
	}

	_, err := execute(t, "scripts")

	assert.ErrorIs(t, err, domain.ErrConfigMissing)
}

func TestCommands_WithoutServices(t *testing.T) {
	setupServices(t, nil)

	_, err := execute(t, "history", "show", "kam")

	assert.EqualError(t, err, "services not configured")
}

func TestServeCmd_AddrFromSettings(t *testing.T) {
	var gotAddr string
	settings := domain.DefaultAppSettings()
	settings.Addr = ":9090"
	setupServices(t, &Services{
		Settings: &fakeSettings{settings: settings},
		Serve: func(_ context.Context, addr string) error {
			gotAddr = addr
			return nil
		},
	})

	_, err := execute(t, "serve")

	require.NoError(t, err)
	assert.Equal(t, ":9090", gotAddr)
}

func TestServeCmd_AddrFlag(t *testing.T) {
	var gotAddr string
	setupServices(t, &Services{Serve: func(_ context.Context, addr string) error {
		gotAddr = addr
		return nil
	}})
	defer func() { serveAddr = "" }()

	_, err := execute(t, "serve", "--addr", "127.0.0.1:7000")

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", gotAddr)
}

func TestServeCmd_NotConfigured(t *testing.T) {
	setupServices(t, &Services{})

	_, err := execute(t, "serve")

	assert.EqualError(t, err, "http server not configured")
}

func TestExportCmd(t *testing.T) {
	verified := true
	export := &fakeExport{result: &driving.ExportResult{
		SpreadsheetID: "sheet-1",
		Tab:           "Archive",
		Rows:          12,
		Columns:       5,
		Enriched:      10,
		Verified:      &verified,
		Warnings:      []string{"2 contacts not found"},
	}}
	setupServices(t, &Services{Export: export})
	defer func() { exportTab = "" }()

	out, err := execute(t, "export", "--tab", "Archive")

	require.NoError(t, err)
	assert.Equal(t, "Archive", export.gotExport.Tab)
	assert.Contains(t, out, `Exported 12 rows (5 columns) to tab "Archive".`)
	assert.Contains(t, out, "Verified: true")
	assert.Contains(t, out, "Warning: 2 contacts not found")
}

func TestDownloadCmd_WritesFile(t *testing.T) {
	export := &fakeExport{download: &driving.Download{FileName: "requests.xlsx", Data: []byte("xlsx"), Rows: 3}}
	setupServices(t, &Services{Export: export})
	path := filepath.Join(t.TempDir(), "out.xlsx")
	defer func() { downloadOutput, downloadFolder, downloadStatus = "", "", "" }()

	out, err := execute(t, "download", "--folder", "5", "--status", "7", "-o", path)

	require.NoError(t, err)
	assert.Equal(t, driving.DownloadRequest{FolderID: "5", StatusID: "7"}, export.gotDownload)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))
	assert.Contains(t, out, "Wrote 3 rows")
}

func TestNotifyCmd_Sent(t *testing.T) {
	notification := &fakeNotification{result: &driving.NotifyResult{
		Scenario:   "kam_notification",
		Sent:       true,
		Subject:    "New requests",
		Recipients: []string{"a@example.com", "b@example.com"},
		RequestIDs: []domain.RecordID{"1", "2"},
		Excluded:   1,
		Attachment: "https://drive.example/file",
	}}
	setupServices(t, &Services{Notification: notification})
	defer func() { notifyStatus, notifyCategory, notifyTest = "", "", false }()

	out, err := execute(t, "notify", "--status", "7", "--category", "3", "--test")

	require.NoError(t, err)
	assert.Equal(t, driving.NotifyRequest{StatusID: "7", CategoryID: "3", TestMode: true}, notification.got)
	assert.Contains(t, out, "Scenario: kam_notification")
	assert.Contains(t, out, "a@example.com, b@example.com")
	assert.Contains(t, out, "Requests: 2 (excluded 1)")
	assert.Contains(t, out, "Attachment: https://drive.example/file")
}

func TestNotifyCmd_NothingSent(t *testing.T) {
	notification := &fakeNotification{result: &driving.NotifyResult{
		Scenario: "kam_notification",
		Reason:   "no new requests",
		Excluded: 4,
	}}
	setupServices(t, &Services{Notification: notification})
	defer func() { notifyStatus = "" }()

	out, err := execute(t, "notify", "--status", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "Nothing sent: no new requests")
	assert.Contains(t, out, "Excluded: 4")
}

func TestNotifyCmd_Error(t *testing.T) {
	notification := &fakeNotification{err: domain.ErrScenarioNotFound}
	setupServices(t, &Services{Notification: notification})
	defer func() { notifyStatus = "" }()

	_, err := execute(t, "notify", "--status", "99")

	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestHistoryShowCmd(t *testing.T) {
	setupServices(t, &Services{History: &fakeHistory{entries: []domain.HistoryEntry{sampleEntry()}}})

	out, err := execute(t, "history", "show", "kam_notification")

	require.NoError(t, err)
	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, "2026-10-01 09:30")
	assert.Contains(t, out, "kam@example.com")
	assert.Contains(t, out, "New requests")
}

func TestHistoryShowCmd_Empty(t *testing.T) {
	setupServices(t, &Services{History: &fakeHistory{}})

	out, err := execute(t, "history", "show", "kam_notification")

	require.NoError(t, err)
	assert.Contains(t, out, "No history for kam_notification.")
}

func TestHistoryShowCmd_ListsScenarios(t *testing.T) {
	setupServices(t, &Services{History: &fakeHistory{scenarios: []string{"kam_notification", "translation"}}})

	out, err := execute(t, "history", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "kam_notification\ntranslation\n")
}

func TestHistoryShowCmd_NoScenarios(t *testing.T) {
	setupServices(t, &Services{History: &fakeHistory{}})

	out, err := execute(t, "history", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded.")
}

func TestHistoryShowCmd_TooManyArgs(t *testing.T) {
	setupServices(t, &Services{History: &fakeHistory{}})

	_, err := execute(t, "history", "show", "a", "b")

	assert.Error(t, err)
}

func TestHistoryPruneCmd_Flag(t *testing.T) {
	history := &fakeHistory{pruned: 3}
	setupServices(t, &Services{History: history})
	defer func() { pruneOlderThan = 0 }()

	out, err := execute(t, "history", "prune", "--older-than", "30")

	require.NoError(t, err)
	assert.Equal(t, 30, history.prunedAt)
	assert.Contains(t, out, "Removed 3 entries older than 30 days.")
}

func TestHistoryPruneCmd_DefaultFromSettings(t *testing.T) {
	history := &fakeHistory{}
	setupServices(t, &Services{History: history, Settings: &fakeSettings{settings: domain.DefaultAppSettings()}})

	_, err := execute(t, "history", "prune")

	require.NoError(t, err)
	assert.Equal(t, 90, history.prunedAt)
}

func TestHistoryPruneCmd_RejectsNonPositive(t *testing.T) {
	setupServices(t, &Services{History: &fakeHistory{}})

	_, err := execute(t, "history", "prune")

	assert.EqualError(t, err, "--older-than must be a positive number of days")
}

func TestScriptsCmd(t *testing.T) {
	setupServices(t, &Services{Scripts: fakeScripts{}})

	list, err := execute(t, "scripts")
	require.NoError(t, err)
	assert.Contains(t, list, "vacuum")

	run, err := execute(t, "scripts", "run", "vacuum")
	require.NoError(t, err)
	assert.Contains(t, run, "running vacuum")
}

func TestSettingsCmd_MasksSecrets(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Database.Password = "supersecretpassword"
	settings.Mail.SMTPPassword = "short"
	setupServices(t, &Services{Settings: &fakeSettings{settings: settings}})

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.NotContains(t, out, "supersecretpassword")
	assert.Contains(t, out, "su...rd")
	assert.Contains(t, out, "****")
	assert.Contains(t, out, "Timezone: UTC")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_ReportsValidation(t *testing.T) {
	setupServices(t, &Services{Settings: &fakeSettings{
		settings:    domain.DefaultAppSettings(),
		validateErr: errors.New("db.host: required configuration missing"),
	}})

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: db.host: required configuration missing")
}

func TestSettingsSetCmd(t *testing.T) {
	settings := &fakeSettings{}
	setupServices(t, &Services{Settings: settings})

	out, err := execute(t, "settings", "set", "mail.from", "robot@example.com")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"mail.from": "robot@example.com"}, settings.saved)
	assert.Contains(t, out, "Saved mail.from.")
}

func TestSettingsSetCmd_Error(t *testing.T) {
	setupServices(t, &Services{Settings: &fakeSettings{setErr: domain.ErrInvalidInput}})

	_, err := execute(t, "settings", "set", "nope", "x")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSetCmd_LocalScope(t *testing.T) {
	setupServices(t, nil)
	var gotScope Scope = -1
	bootstrap = func(_ context.Context, _ string, scope Scope) (*Services, error) {
		gotScope = scope
		return &Services{Settings: &fakeSettings{}}, nil
	}

	_, err := execute(t, "settings", "set", "mail.from", "robot@example.com")

	require.NoError(t, err)
	assert.Equal(t, ScopeLocal, gotScope)
}

func TestTeardown_ClosesServices(t *testing.T) {
	closed := false
	setupServices(t, &Services{Scripts: fakeScripts{}, Close: func() error {
		closed = true
		return nil
	}})

	_, err := execute(t, "scripts")

	require.NoError(t, err)
	assert.True(t, closed)
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: "(not set)"},
		{input: "abc", expected: "****"},
		{input: "12345678", expected: "****"},
		{input: "sk-1234567890", expected: "sk...90"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, maskSecret(tt.input), tt.input)
	}
}
