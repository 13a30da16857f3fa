// Command reqbridge moves product requests between the request database,
// the shared spreadsheet, the identity directory and mail.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/reqbridge/internal/adapters/driving/cli"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, version, bootstrap); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
