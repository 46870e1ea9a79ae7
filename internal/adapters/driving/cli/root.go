// Package cli provides the ragline command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/config"
	"github.com/custodia-labs/ragline/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "Retrieval-augmented answers over your documents",
	Long: `ragline indexes uploaded files, CMS records and local directories into a
vector store and answers questions from the most similar passages.

Run 'ragline serve' for the HTTP API, or use the ingest, ask and chat
commands directly from the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./ragline.toml or $RAGLINE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by 'ragline version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func setupLogging(_ *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if logLevel != "" {
		return logger.SetLevel(logLevel)
	}
	return nil
}

// newContainer builds the service container for a command. Tests replace it.
var newContainer = func(_ *cobra.Command) (*app.Container, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel == "" && !verbose {
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	if err := logger.SetFormat(cfg.Log.Format); err != nil {
		return nil, err
	}
	return app.New(cfg), nil
}

// withServices runs fn with the core services and closes the container afterwards.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container, svc *app.Services) error) (err error) {
	c, err := newContainer(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()

	ctx := commandContext(cmd)
	svc, err := c.Services(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, c, svc)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
