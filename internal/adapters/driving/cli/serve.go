package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on the configured address.

The server stops gracefully on interrupt.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, then :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Serve == nil {
		return errors.New("http server not configured")
	}

	addr := serveAddr
	if addr == "" && svc.Settings != nil {
		if settings, err := svc.Settings.Get(); err == nil {
			addr = settings.Addr
		}
	}
	if addr == "" {
		addr = ":8080"
	}

	return svc.Serve(commandContext(cmd), addr)
}
