// Package cli provides the reqbridge command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Services are the driving ports the commands call.
type Services struct {
	Settings     driving.SettingsService
	Notification driving.NotificationService
	Export       driving.ExportService
	History      driving.HistoryService
	Scripts      driving.ScriptService

	// Serve runs the HTTP API until the context is cancelled.
	Serve func(ctx context.Context, addr string) error

	// Close releases the adapters behind the services.
	Close func() error
}

// Scope selects how much of the application a command needs.
type Scope int

const (
	// ScopeFull builds every adapter and validates the settings first.
	ScopeFull Scope = iota
	// ScopeLocal builds only the settings and history services. It does not
	// validate settings or dial the database and Google.
	ScopeLocal
)

// annotationScope marks commands that run with ScopeLocal.
const annotationScope = "reqbridge.scope"

// Bootstrap builds the services from the config file at configPath.
type Bootstrap func(ctx context.Context, configPath string, scope Scope) (*Services, error)

var (
	version = "dev"

	configPath string
	verbose    bool

	bootstrap Bootstrap
	services  *Services
)

var rootCmd = &cobra.Command{
	Use:   "reqbridge",
	Short: "Move product requests between the database, the spreadsheet and mail",
	Long: `reqbridge extracts product request records from the request database,
enriches them with directory contacts and delivers them as spreadsheet exports,
XLSX downloads and scenario notifications.

Run 'reqbridge serve' to start the HTTP API.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default reqbridge.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command line with the given version and bootstrap.
func Execute(ctx context.Context, v string, b Bootstrap) error {
	version = v
	bootstrap = b
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if services != nil || bootstrap == nil || cmd == versionCmd {
		return nil
	}

	svc, err := bootstrap(commandContext(cmd), configPath, scopeOf(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	services = svc
	return nil
}

// scopeOf returns the scope annotated on cmd or its nearest annotated parent.
func scopeOf(cmd *cobra.Command) Scope {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationScope] == "local" {
			return ScopeLocal
		}
	}
	return ScopeFull
}

func teardown(_ *cobra.Command, _ []string) error {
	if services == nil || services.Close == nil {
		return nil
	}
	return services.Close()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requireServices() (*Services, error) {
	if services == nil {
		return nil, errors.New("services not configured")
	}
	return services, nil
}
