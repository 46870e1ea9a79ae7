package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
	"github.com/custodia-labs/ragline/internal/metrics"
)

// MaxUploadMemory is the multipart size kept in memory; larger parts spill
// to temporary files.
const MaxUploadMemory = 32 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Ports holds the services the routes call.
type Ports struct {
	Chat       driving.ChatService
	Ingest     driving.IngestService
	Collection driving.CollectionService

	// Files serves /files/*name. Optional.
	Files driven.FileStore

	// Metrics enables request metrics and /metrics. Optional.
	Metrics *metrics.Metrics
}

// Options tunes the engine.
type Options struct {
	CORSOrigins []string
	Gzip        bool
}

// Server is the HTTP surface.
type Server struct {
	ports  Ports
	engine *gin.Engine
}

// NewServer creates a server with all routes registered.
func NewServer(ports Ports, opts Options) *Server {
	engine := gin.New()
	engine.MaxMultipartMemory = MaxUploadMemory

	engine.Use(Recovery(), RequestLogger(), CORS(opts.CORSOrigins))
	if ports.Metrics != nil {
		engine.Use(Metrics(ports.Metrics))
	}
	if opts.Gzip {
		engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/files/"})))
	}

	s := &Server{ports: ports, engine: engine}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.POST("/chat", s.chat)
	s.engine.POST("/upload", s.upload)
	s.engine.POST("/cms/import", s.cmsImport)
	s.engine.POST("/reset", s.reset)
	if s.ports.Files != nil {
		s.engine.GET("/files/*name", s.file)
	}
	if s.ports.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.ports.Metrics.Handler()))
	}
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Detail: "not found"})
	})
}

// Handler returns the engine as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("http server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
