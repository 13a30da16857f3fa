package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the resolved settings",
	Long: `Show the settings resolved from the config file and the environment,
with secrets masked, and report whether they are valid.`,
	RunE: runSettingsShow,

	Annotations: map[string]string{annotationScope: "local"},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one setting to the config file",
	Long: `Write one setting to the config file. Numbers and booleans are parsed for
the keys that hold them, and lists are comma-separated.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Settings == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	if err := svc.Settings.Set(key, args[1]); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Saved %s.\n", key)
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := svc.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Database]")
	cmd.Printf("  Host: %s:%d\n", settings.Database.Host, settings.Database.Port)
	cmd.Printf("  Name: %s\n", settings.Database.Name)
	cmd.Printf("  User: %s\n", settings.Database.User)
	cmd.Printf("  Password: %s\n", maskSecret(settings.Database.Password))
	cmd.Printf("  Row limit: %d\n", settings.Database.RowLimit)
	cmd.Printf("  Timezone: %s\n", orDefault(settings.Database.Timezone, "UTC"))
	cmd.Println()

	cmd.Println("[Sheets]")
	cmd.Printf("  Spreadsheet: %s\n", orUnset(settings.Sheets.SpreadsheetID))
	cmd.Printf("  Export tab: %s\n", settings.Sheets.ExportTab)
	cmd.Printf("  Scenario tab: %s\n", settings.Sheets.ScenarioTab)
	cmd.Printf("  Provisioning tab: %s\n", settings.Sheets.ProvisioningTab)
	cmd.Println()

	cmd.Println("[Directory]")
	if settings.Directory.Enabled() {
		cmd.Printf("  URL: %s (realm %s)\n", settings.Directory.BaseURL, settings.Directory.Realm)
		cmd.Printf("  Admin: %s\n", settings.Directory.AdminUser)
		cmd.Printf("  Password: %s\n", maskSecret(settings.Directory.AdminPassword))
	} else {
		cmd.Println("  Enabled: no")
	}
	cmd.Println()

	cmd.Println("[Mail]")
	cmd.Printf("  Transport: %s\n", settings.Mail.Transport)
	cmd.Printf("  From: %s\n", orUnset(settings.Mail.From))
	if settings.Mail.Transport == domain.MailTransportSMTP {
		cmd.Printf("  SMTP: %s:%d\n", settings.Mail.SMTPHost, settings.Mail.SMTPPort)
		cmd.Printf("  Password: %s\n", maskSecret(settings.Mail.SMTPPassword))
	}
	cmd.Printf("  Test recipient: %s\n", orUnset(settings.Mail.TestRecipient))
	cmd.Println()

	cmd.Println("[History]")
	cmd.Printf("  Backend: %s\n", settings.History.Backend)
	cmd.Printf("  Path: %s\n", settings.History.Path)
	cmd.Printf("  Max age: %d days\n", settings.History.MaxAgeDays)
	cmd.Println()

	if len(settings.Scripts) > 0 {
		cmd.Println("[Scripts]")
		for _, s := range settings.Scripts {
			cmd.Printf("  %s: %s\n", s.Name, strings.Join(s.Command, " "))
		}
		cmd.Println()
	}

	if err := svc.Settings.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

// maskSecret hides all but the edges of a secret.
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:2] + "..." + secret[len(secret)-2:]
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
