package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap/zapcore"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// Validate checks the configuration for consistency. The first problem
// found is returned as a *domain.ConfigurationError.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateServer,
		c.validateChunking,
		c.validateEmbedding,
		c.validateLLM,
		c.validateVector,
		c.validateStorage,
		c.validateWatch,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return domain.NewConfigurationError("server.addr", "must not be empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return domain.NewConfigurationError("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return domain.NewConfigurationError("log.format", `must be "console" or "json"`)
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.MaxChars <= 0 {
		return domain.NewConfigurationError("chunking.max_chars", "must be positive")
	}
	if c.Chunking.Overlap < 0 {
		return domain.NewConfigurationError("chunking.overlap", "must not be negative")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	e := c.Embedding
	provider := domain.AIProvider(e.Provider)
	if !provider.SupportsEmbedding() {
		return domain.NewConfigurationError("embedding.provider", fmt.Sprintf("%q cannot produce embeddings", e.Provider))
	}
	if provider.RequiresAPIKey() && e.APIKey == "" {
		return domain.NewConfigurationError("embedding.api_key", fmt.Sprintf("required for %s", provider))
	}
	if e.Settings().ResolvedDimensions() <= 0 {
		return domain.NewConfigurationError("embedding.dimensions", fmt.Sprintf("unknown for model %q; set it explicitly", e.Model))
	}
	for _, name := range e.Fallback {
		if !domain.AIProvider(name).SupportsEmbedding() {
			return domain.NewConfigurationError("embedding.fallback", fmt.Sprintf("%q cannot produce embeddings", name))
		}
	}
	if e.CacheSize < 0 {
		return domain.NewConfigurationError("embedding.cache_size", "must not be negative")
	}
	if err := checkDuration("embedding.cache_ttl", e.CacheTTL); err != nil {
		return err
	}
	if e.RatePerSec < 0 {
		return domain.NewConfigurationError("embedding.rate_per_sec", "must not be negative")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !domain.IsValidAnswerMode(c.Answer.Mode) {
		return domain.NewConfigurationError("answer.mode", fmt.Sprintf("unknown mode %q", c.Answer.Mode))
	}
	if err := checkDuration("llm.timeout", c.LLM.Timeout); err != nil {
		return err
	}

	if c.LLM.Provider == "" {
		if c.Answer.Mode == domain.AnswerModeGenerative {
			return domain.NewConfigurationError("llm.provider", "must be configured for generative answers")
		}
		return nil
	}
	provider := domain.AIProvider(c.LLM.Provider)
	if !provider.SupportsLLM() {
		return domain.NewConfigurationError("llm.provider", fmt.Sprintf("%q cannot generate text", c.LLM.Provider))
	}
	if provider.RequiresAPIKey() && c.LLM.APIKey == "" {
		return domain.NewConfigurationError("llm.api_key", fmt.Sprintf("required for %s", provider))
	}
	return nil
}

func (c *Config) validateVector() error {
	v := c.Vector
	if v.Collection == "" {
		return domain.NewConfigurationError("vector.collection", "must not be empty")
	}
	switch v.Backend {
	case domain.VectorBackendQdrant:
		if v.URL == "" {
			return domain.NewConfigurationError("vector.url", "is required for the qdrant backend")
		}
		if v.APIKey == "" && !v.AllowAnonymous {
			return domain.NewConfigurationError("vector.api_key", "is required for the qdrant backend unless allow_anonymous is set")
		}
	case domain.VectorBackendPostgres:
		if v.DSN == "" {
			return domain.NewConfigurationError("vector.dsn", "is required for the postgres backend")
		}
	case domain.VectorBackendSQLite:
		if v.Path == "" {
			return domain.NewConfigurationError("vector.path", "is required for the sqlite backend")
		}
	case domain.VectorBackendMemory:
	default:
		return domain.NewConfigurationError("vector.backend", fmt.Sprintf("unknown backend %q", v.Backend))
	}
	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage
	switch s.FileStore {
	case "local":
		if s.UploadDir == "" {
			return domain.NewConfigurationError("storage.upload_dir", "must not be empty")
		}
	case "s3":
		if s.S3.Bucket == "" {
			return domain.NewConfigurationError("storage.s3.bucket", "is required for the s3 file store")
		}
	default:
		return domain.NewConfigurationError("storage.file_store", fmt.Sprintf("unknown file store %q", s.FileStore))
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.Schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		return domain.NewConfigurationError("watch.schedule", err.Error())
	}
	return nil
}

func checkDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return domain.NewConfigurationError(key, fmt.Sprintf("invalid duration %q", value))
	}
	if d <= 0 {
		return domain.NewConfigurationError(key, "must be positive")
	}
	return nil
}
