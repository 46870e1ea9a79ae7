package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "RAGLINE_CONFIG"

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "ragline.toml"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. .env in the working directory, when present
//  3. The config file (explicit path, $RAGLINE_CONFIG, ./ragline.toml)
//  4. Environment variable overrides
//  5. Validation
//
// An explicitly named file must exist. The default file is optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Defaults()

	filePath, explicit := ResolvePath(path)
	if err := loadFile(filePath, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePath returns the config file to use and whether it was named
// explicitly (argument or environment) rather than defaulted.
func ResolvePath(path string) (string, bool) {
	if path != "" {
		return path, true
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// loadFile decodes the file into cfg. Fields absent from the file keep
// their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

// envString maps environment variables onto string fields.
func envString(cfg *Config) map[string]*string {
	return map[string]*string{
		"RAGLINE_SERVER_ADDR":        &cfg.Server.Addr,
		"RAGLINE_PUBLIC_BASE_URL":    &cfg.Server.PublicBaseURL,
		"RAGLINE_LOG_LEVEL":          &cfg.Log.Level,
		"RAGLINE_LOG_FORMAT":         &cfg.Log.Format,
		"RAGLINE_EMBEDDING_PROVIDER": &cfg.Embedding.Provider,
		"RAGLINE_EMBEDDING_MODEL":    &cfg.Embedding.Model,
		"RAGLINE_EMBEDDING_BASE_URL": &cfg.Embedding.BaseURL,
		"RAGLINE_EMBEDDING_API_KEY":  &cfg.Embedding.APIKey,
		"RAGLINE_LLM_PROVIDER":       &cfg.LLM.Provider,
		"RAGLINE_LLM_MODEL":          &cfg.LLM.Model,
		"RAGLINE_LLM_BASE_URL":       &cfg.LLM.BaseURL,
		"RAGLINE_LLM_API_KEY":        &cfg.LLM.APIKey,
		"RAGLINE_LLM_TIMEOUT":        &cfg.LLM.Timeout,
		"RAGLINE_ANSWER_MODE":        &cfg.Answer.Mode,
		"RAGLINE_VECTOR_BACKEND":     &cfg.Vector.Backend,
		"RAGLINE_VECTOR_COLLECTION":  &cfg.Vector.Collection,
		"RAGLINE_VECTOR_URL":         &cfg.Vector.URL,
		"RAGLINE_VECTOR_API_KEY":     &cfg.Vector.APIKey,
		"RAGLINE_VECTOR_DSN":         &cfg.Vector.DSN,
		"RAGLINE_VECTOR_PATH":        &cfg.Vector.Path,
		"RAGLINE_FILE_STORE":         &cfg.Storage.FileStore,
		"RAGLINE_UPLOAD_DIR":         &cfg.Storage.UploadDir,
		"RAGLINE_S3_BUCKET":          &cfg.Storage.S3.Bucket,
		"RAGLINE_S3_REGION":          &cfg.Storage.S3.Region,
		"RAGLINE_S3_ENDPOINT":        &cfg.Storage.S3.Endpoint,
		"RAGLINE_PROMPTS_DIR":        &cfg.Prompts.Dir,
		"RAGLINE_WATCH_DIR":          &cfg.Watch.Dir,
		"RAGLINE_WATCH_SCHEDULE":     &cfg.Watch.Schedule,
	}
}

// applyEnvOverrides maps environment variables to config fields.
// The QDRANT_* and VECTOR_SIZE names are honoured for existing deployments.
func applyEnvOverrides(cfg *Config) {
	// Legacy names first so RAGLINE_* wins when both are set.
	if v := os.Getenv("QDRANT_URL"); v != "" {
		cfg.Vector.URL = v
		if cfg.Vector.Backend == DefaultVectorBackend {
			cfg.Vector.Backend = domain.VectorBackendQdrant
		}
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		cfg.Vector.APIKey = v
	}
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		cfg.Vector.Collection = v
	}
	if v := os.Getenv("VECTOR_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimensions = n
		}
	}

	for name, field := range envString(cfg) {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("RAGLINE_EMBEDDING_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimensions = n
		}
	}
	if v := os.Getenv("RAGLINE_EMBEDDING_FALLBACK"); v != "" {
		cfg.Embedding.Fallback = splitList(v)
	}
	if v := os.Getenv("RAGLINE_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	// Provider keys fill in only what the file left empty.
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = ProviderAPIKey(domain.AIProvider(cfg.Embedding.Provider))
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = ProviderAPIKey(domain.AIProvider(cfg.LLM.Provider))
	}
}

// ProviderAPIKey returns the environment key for a provider. Fallback
// embedders use it since they have no config section of their own.
func ProviderAPIKey(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case domain.AIProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case domain.AIProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
