// Command ragline answers questions from indexed documents.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ragline/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragline/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	err := cli.Execute(ctx)
	logger.Sync()
	if err != nil {
		stop()
		os.Exit(1)
	}
}
