package cli

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragline/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ragline/internal/adapters/driving/watch"
	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/logger"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API:

  GET  /health        collection status and embedding model
  POST /chat          answer a question
  POST /upload        index uploaded files (multipart "files")
  POST /cms/import    index structured records
  POST /reset         drop and recreate the collection
  GET  /files/{name}  serve a stored upload
  GET  /metrics       Prometheus metrics

With --watch the [watch] directory is kept indexed as well, and re-ingested
on [watch] schedule when one is configured.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from [server] addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "also watch the [watch] directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	gin.SetMode(gin.ReleaseMode)

	return withServices(cmd, func(ctx context.Context, c *app.Container, svc *app.Services) error {
		cfg := c.Config()
		if serveWatch && cfg.Watch.Dir == "" {
			return domain.NewConfigurationError("watch.dir", "required with --watch")
		}
		files, err := c.FileStore(ctx)
		if err != nil {
			return err
		}

		// The collection must exist before the first upload.
		status, err := svc.Collection.Health(ctx)
		if err != nil {
			return fmt.Errorf("startup health check: %w", err)
		}

		server := httpapi.NewServer(httpapi.Ports{
			Chat:       svc.Chat,
			Ingest:     svc.Ingest,
			Collection: svc.Collection,
			Files:      files,
			Metrics:    c.Metrics(),
		}, httpapi.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			Gzip:        cfg.Server.Gzip,
		})

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		logger.L().Info("serving",
			zap.String("addr", addr),
			zap.String("collection", status.Collection),
			zap.String("embedding_model", status.EmbeddingModel))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return server.Run(gctx, addr) })
		if serveWatch {
			w := watch.New(cfg.Watch.Dir, svc.Ingest)
			g.Go(func() error { return w.Run(gctx) })
			if cfg.Watch.Schedule != "" {
				startSchedule(gctx, g, cfg.Watch.Dir, cfg.Watch.Schedule, svc)
			}
		}
		return g.Wait()
	})
}
