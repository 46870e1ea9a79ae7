// Package config loads ragline settings from defaults, an optional TOML or
// YAML file, a .env file and the environment.
package config

import (
	"time"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// Defaults for settings that have one.
const (
	DefaultAddr          = ":8000"
	DefaultPublicBaseURL = "http://localhost:8000"
	DefaultCollection    = "docs"
	DefaultVectorBackend = domain.VectorBackendSQLite
	DefaultSQLitePath    = "ragline.db"
	DefaultUploadDir     = "uploads"
	DefaultFileStore     = "local"
	DefaultLLMTimeout    = 30 * time.Second
	DefaultCacheSize     = 1024
	DefaultCacheTTL      = time.Hour
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	Chunking  ChunkingConfig  `toml:"chunking" yaml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding" yaml:"embedding"`
	LLM       LLMConfig       `toml:"llm" yaml:"llm"`
	Answer    AnswerConfig    `toml:"answer" yaml:"answer"`
	Vector    VectorConfig    `toml:"vector" yaml:"vector"`
	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
	Prompts   PromptsConfig   `toml:"prompts" yaml:"prompts"`
	Watch     WatchConfig     `toml:"watch" yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr          string   `toml:"addr" yaml:"addr"`
	PublicBaseURL string   `toml:"public_base_url" yaml:"public_base_url"`
	CORSOrigins   []string `toml:"cors_origins" yaml:"cors_origins"`
	Gzip          bool     `toml:"gzip" yaml:"gzip"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
	// Format is "console" or "json".
	Format string `toml:"format" yaml:"format"`
}

// ChunkingConfig sizes the passage window.
type ChunkingConfig struct {
	MaxChars int `toml:"max_chars" yaml:"max_chars"`
	Overlap  int `toml:"overlap" yaml:"overlap"`

	// DropDuplicates removes repeated passages within one document.
	DropDuplicates bool `toml:"drop_duplicates" yaml:"drop_duplicates"`
}

// EmbeddingConfig selects the embedding provider and its decorators.
type EmbeddingConfig struct {
	Provider   string   `toml:"provider" yaml:"provider"`
	Model      string   `toml:"model" yaml:"model"`
	BaseURL    string   `toml:"base_url" yaml:"base_url"`
	APIKey     string   `toml:"api_key" yaml:"api_key"`
	Dimensions int      `toml:"dimensions" yaml:"dimensions"`
	Fallback   []string `toml:"fallback" yaml:"fallback"`

	// CacheSize is the number of cached query embeddings. Zero disables the cache.
	CacheSize int `toml:"cache_size" yaml:"cache_size"`
	// CacheTTL is a duration string such as "1h".
	CacheTTL string `toml:"cache_ttl" yaml:"cache_ttl"`
	// RatePerSec limits provider calls. Zero means unlimited.
	RatePerSec float64 `toml:"rate_per_sec" yaml:"rate_per_sec"`
}

// Settings converts the primary provider section to domain settings.
func (e EmbeddingConfig) Settings() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:   domain.AIProvider(e.Provider),
		Model:      e.Model,
		BaseURL:    e.BaseURL,
		APIKey:     e.APIKey,
		Dimensions: e.Dimensions,
	}
}

// FallbackSettings returns the settings of each fallback provider. They
// use the provider's default model and its key from the environment.
func (e EmbeddingConfig) FallbackSettings() []domain.EmbeddingSettings {
	out := make([]domain.EmbeddingSettings, 0, len(e.Fallback))
	for _, name := range e.Fallback {
		p := domain.AIProvider(name)
		out = append(out, domain.EmbeddingSettings{
			Provider: p,
			Model:    domain.DefaultEmbeddingModels()[p],
			APIKey:   ProviderAPIKey(p),
		})
	}
	return out
}

// CacheTTLDuration parses CacheTTL, falling back to DefaultCacheTTL.
func (e EmbeddingConfig) CacheTTLDuration() time.Duration {
	return parseDuration(e.CacheTTL, DefaultCacheTTL)
}

// LLMConfig selects the generative model.
type LLMConfig struct {
	Provider string `toml:"provider" yaml:"provider"`
	Model    string `toml:"model" yaml:"model"`
	BaseURL  string `toml:"base_url" yaml:"base_url"`
	APIKey   string `toml:"api_key" yaml:"api_key"`
	// Timeout bounds one generation call, e.g. "30s".
	Timeout string `toml:"timeout" yaml:"timeout"`
}

// Settings converts the section to domain settings.
func (l LLMConfig) Settings() domain.LLMSettings {
	return domain.LLMSettings{
		Provider: domain.AIProvider(l.Provider),
		Model:    l.Model,
		BaseURL:  l.BaseURL,
		APIKey:   l.APIKey,
	}
}

// TimeoutDuration parses Timeout, falling back to DefaultLLMTimeout.
func (l LLMConfig) TimeoutDuration() time.Duration {
	return parseDuration(l.Timeout, DefaultLLMTimeout)
}

// AnswerConfig selects the default composer.
type AnswerConfig struct {
	Mode string `toml:"mode" yaml:"mode"`
}

// VectorConfig selects the vector store.
type VectorConfig struct {
	// Backend is one of qdrant, postgres, sqlite, memory.
	Backend    string `toml:"backend" yaml:"backend"`
	Collection string `toml:"collection" yaml:"collection"`

	// URL and APIKey address a qdrant server.
	URL            string `toml:"url" yaml:"url"`
	APIKey         string `toml:"api_key" yaml:"api_key"`
	AllowAnonymous bool   `toml:"allow_anonymous" yaml:"allow_anonymous"`

	// DSN is the postgres connection string.
	DSN string `toml:"dsn" yaml:"dsn"`

	// Path is the sqlite database file.
	Path string `toml:"path" yaml:"path"`
}

// StorageConfig selects where uploads are kept.
type StorageConfig struct {
	// FileStore is "local" or "s3".
	FileStore string   `toml:"file_store" yaml:"file_store"`
	UploadDir string   `toml:"upload_dir" yaml:"upload_dir"`
	S3        S3Config `toml:"s3" yaml:"s3"`
}

// S3Config addresses an S3 compatible bucket.
type S3Config struct {
	Bucket          string `toml:"bucket" yaml:"bucket"`
	Region          string `toml:"region" yaml:"region"`
	Endpoint        string `toml:"endpoint" yaml:"endpoint"`
	Prefix          string `toml:"prefix" yaml:"prefix"`
	AccessKeyID     string `toml:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key" yaml:"secret_access_key"`
	// PublicURL replaces the bucket endpoint in returned object URLs.
	PublicURL    string `toml:"public_url" yaml:"public_url"`
	UsePathStyle bool   `toml:"use_path_style" yaml:"use_path_style"`
}

// PromptsConfig locates the prompt templates.
type PromptsConfig struct {
	Dir string `toml:"dir" yaml:"dir"`
}

// WatchConfig drives `ragline watch`.
type WatchConfig struct {
	Dir string `toml:"dir" yaml:"dir"`
	// Schedule is a cron expression for a full re-ingest. Empty disables it.
	Schedule string `toml:"schedule" yaml:"schedule"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:          DefaultAddr,
			PublicBaseURL: DefaultPublicBaseURL,
			CORSOrigins:   []string{"*"},
			Gzip:          true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Chunking: ChunkingConfig{
			MaxChars: domain.DefaultChunkMaxChars,
			Overlap:  domain.DefaultChunkOverlap,
		},
		Embedding: EmbeddingConfig{
			Provider:  string(domain.AIProviderLocal),
			CacheSize: DefaultCacheSize,
			CacheTTL:  DefaultCacheTTL.String(),
		},
		LLM: LLMConfig{
			Timeout: DefaultLLMTimeout.String(),
		},
		Answer: AnswerConfig{
			Mode: domain.AnswerModeExtractive,
		},
		Vector: VectorConfig{
			Backend:    DefaultVectorBackend,
			Collection: DefaultCollection,
			Path:       DefaultSQLitePath,
		},
		Storage: StorageConfig{
			FileStore: DefaultFileStore,
			UploadDir: DefaultUploadDir,
		},
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
