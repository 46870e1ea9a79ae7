// Package app wires configuration into adapters and services.
//
// A Container builds each client on first use and owns it until Close.
// Driving adapters (HTTP, CLI, MCP, watcher) take their services from a
// Container instead of constructing adapters themselves.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragline/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragline/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragline/internal/adapters/driven/filestore/local"
	"github.com/custodia-labs/ragline/internal/adapters/driven/filestore/s3"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragline/internal/config"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/services"
	"github.com/custodia-labs/ragline/internal/logger"
	"github.com/custodia-labs/ragline/internal/metrics"
	"github.com/custodia-labs/ragline/internal/normalisers"
	"github.com/custodia-labs/ragline/internal/postprocessors"
)

// Services groups the core services a driving adapter needs.
type Services struct {
	Chat       *services.ChatService
	Ingest     *services.IngestService
	Collection *services.CollectionService
}

// Option customises a Container.
type Option func(*Container)

// WithVectorStore injects a vector store instead of building one from config.
// The Container still closes it.
func WithVectorStore(store driven.VectorStore) Option {
	return func(c *Container) { c.store = store }
}

// WithEmbedder injects the embedding service.
func WithEmbedder(embedder driven.EmbeddingService) Option {
	return func(c *Container) { c.embedder = embedder }
}

// WithLLM injects the generative model.
func WithLLM(llm driven.LLMService) Option {
	return func(c *Container) {
		c.llm = llm
		c.llmBuilt = true
	}
}

// WithFileStore injects the upload store.
func WithFileStore(files driven.FileStore) Option {
	return func(c *Container) { c.files = files }
}

// WithMetrics shares a metrics instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// Container owns the clients built from one Config.
type Container struct {
	cfg     *config.Config
	metrics *metrics.Metrics

	mu       sync.Mutex
	store    driven.VectorStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
	llmBuilt bool
	files    driven.FileStore
	prompts  driven.PromptStore
	services *Services
	closed   bool
}

// New creates a Container. Nothing is connected until first use.
func New(cfg *config.Config, opts ...Option) *Container {
	c := &Container{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	return c
}

// Config returns the configuration the Container was built from.
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Metrics returns the service collectors.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// VectorStore returns the configured vector store, connecting on first call.
func (c *Container) VectorStore(ctx context.Context) (driven.VectorStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vectorStore(ctx)
}

func (c *Container) vectorStore(ctx context.Context) (driven.VectorStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	store, err := NewVectorStore(ctx, c.cfg.Vector)
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

// NewVectorStore builds the store named by cfg.Backend.
func NewVectorStore(ctx context.Context, cfg config.VectorConfig) (driven.VectorStore, error) {
	logger.Debug("Opening %s vector store", cfg.Backend)
	switch cfg.Backend {
	case domain.VectorBackendQdrant:
		return qdrant.New(qdrant.Config{URL: cfg.URL, APIKey: cfg.APIKey})
	case domain.VectorBackendPostgres:
		return postgres.New(ctx, postgres.Config{DSN: cfg.DSN, MigrateOnStart: true})
	case domain.VectorBackendSQLite:
		return sqlite.NewStore(cfg.Path)
	case domain.VectorBackendMemory:
		return memory.NewVectorStore(), nil
	default:
		return nil, domain.NewConfigurationError("vector.backend", fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
}

// Embedder returns the decorated embedding service.
func (c *Container) Embedder(ctx context.Context) (driven.EmbeddingService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.embedding(ctx)
}

func (c *Container) embedding(ctx context.Context) (driven.EmbeddingService, error) {
	if c.embedder != nil {
		return c.embedder, nil
	}
	e := c.cfg.Embedding
	svc, err := ai.BuildEmbedding(ctx, ai.EmbeddingOptions{
		Primary:    e.Settings(),
		Fallback:   e.FallbackSettings(),
		CacheSize:  e.CacheSize,
		CacheTTL:   e.CacheTTLDuration(),
		RatePerSec: e.RatePerSec,
	})
	if err != nil {
		return nil, err
	}
	c.embedder = c.metrics.InstrumentEmbedding(svc)
	logger.Info("Embedding model: %s (%d dimensions)", c.embedder.ModelName(), c.embedder.Dimensions())
	return c.embedder, nil
}

// LLM returns the generative model, or nil when none is configured.
func (c *Container) LLM(ctx context.Context) (driven.LLMService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generator(ctx)
}

func (c *Container) generator(ctx context.Context) (driven.LLMService, error) {
	if c.llmBuilt {
		return c.llm, nil
	}
	settings := c.cfg.LLM.Settings()
	llm, err := ai.CreateLLMService(ctx, &settings, c.cfg.LLM.TimeoutDuration())
	if err != nil {
		return nil, err
	}
	c.llm = llm
	c.llmBuilt = true
	return llm, nil
}

// FileStore returns the upload store.
func (c *Container) FileStore(ctx context.Context) (driven.FileStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileStore(ctx)
}

func (c *Container) fileStore(ctx context.Context) (driven.FileStore, error) {
	if c.files != nil {
		return c.files, nil
	}
	st := c.cfg.Storage
	var (
		files driven.FileStore
		err   error
	)
	switch st.FileStore {
	case "s3":
		files, err = s3.New(ctx, s3.Config{
			Bucket:          st.S3.Bucket,
			Region:          st.S3.Region,
			Endpoint:        st.S3.Endpoint,
			Prefix:          st.S3.Prefix,
			AccessKeyID:     st.S3.AccessKeyID,
			SecretAccessKey: st.S3.SecretAccessKey,
			PublicURL:       st.S3.PublicURL,
			UsePathStyle:    st.S3.UsePathStyle,
		})
	case "", "local":
		files, err = local.New(st.UploadDir, c.cfg.Server.PublicBaseURL)
	default:
		err = domain.NewConfigurationError("storage.file_store", fmt.Sprintf("unknown file store %q", st.FileStore))
	}
	if err != nil {
		return nil, err
	}
	c.files = files
	return files, nil
}

// Services builds the core services on first call.
func (c *Container) Services(ctx context.Context) (*Services, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("container is closed")
	}
	if c.services != nil {
		return c.services, nil
	}

	store, err := c.vectorStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	embedder, err := c.embedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	llm, err := c.generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	files, err := c.fileStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.NewPipelineFromConfig(registry,
		domain.ChunkingPipelineConfig(c.cfg.Chunking.MaxChars, c.cfg.Chunking.Overlap, c.cfg.Chunking.DropDuplicates))
	if err != nil {
		return nil, err
	}

	collection := c.cfg.Vector.Collection
	indexer := services.NewIndexer(embedder, store)
	retriever := services.NewRetriever(embedder, store, collection)

	composers := []services.Composer{services.NewExtractiveComposer()}
	if llm != nil {
		if c.prompts == nil {
			prompts, err := file.NewPromptStore(c.cfg.Prompts.Dir)
			if err != nil {
				return nil, fmt.Errorf("prompts: %w", err)
			}
			c.prompts = prompts
		}
		composers = append(composers, services.NewGenerativeComposer(llm, c.prompts, c.cfg.LLM.TimeoutDuration()))
	}

	c.services = &Services{
		Chat: services.NewChatService(retriever, c.cfg.Answer.Mode, composers...),
		Ingest: services.NewIngestService(
			services.NewExtractor(normalisers.NewDefaultRegistry()),
			pipeline,
			indexer,
			files,
			collection,
		),
		Collection: services.NewCollectionService(indexer, store, embedder, collection),
	}
	return c.services, nil
}

// Close releases every client that was built. It is safe to call twice.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vector store: %w", err))
		}
	}
	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close embedder: %w", err))
		}
	}
	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close llm: %w", err))
		}
	}
	return errors.Join(errs...)
}
