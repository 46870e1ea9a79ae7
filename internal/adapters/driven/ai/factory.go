// Package ai builds embedding and LLM service adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/ragline/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/group"
	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/ragline/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragline/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/ragline/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/ragline/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/ragline/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragline/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// EmbeddingOptions describes the full embedding stack: a primary provider,
// ordered fallbacks, then rate limiting and caching around the chain.
type EmbeddingOptions struct {
	Primary    domain.EmbeddingSettings
	Fallback   []domain.EmbeddingSettings
	CacheSize  int
	CacheTTL   time.Duration
	RatePerSec float64
}

// BuildEmbedding creates the decorated embedding service described by opts.
// Fallback providers are asked for the primary's dimensions so the chain
// produces vectors of a single size.
func BuildEmbedding(ctx context.Context, opts EmbeddingOptions) (driven.EmbeddingService, error) {
	primary, err := CreateEmbeddingService(ctx, &opts.Primary)
	if err != nil {
		return nil, err
	}

	svc := primary
	if len(opts.Fallback) > 0 {
		entries := []group.Entry{{Name: opts.Primary.Provider.String(), Service: primary}}
		for i := range opts.Fallback {
			settings := opts.Fallback[i]
			if settings.Dimensions == 0 {
				settings.Dimensions = primary.Dimensions()
			}
			fb, err := CreateEmbeddingService(ctx, &settings)
			if err != nil {
				closeAll(entries)
				return nil, fmt.Errorf("embedding fallback %s: %w", settings.Provider, err)
			}
			entries = append(entries, group.Entry{Name: settings.Provider.String(), Service: fb})
		}
		g, err := group.New(entries)
		if err != nil {
			closeAll(entries)
			return nil, err
		}
		svc = g
	}

	svc = ratelimit.Wrap(svc, opts.RatePerSec)
	return cache.Wrap(svc, opts.CacheSize, opts.CacheTTL), nil
}

func closeAll(entries []group.Entry) {
	for _, e := range entries {
		_ = e.Service.Close()
	}
}

// CreateEmbeddingService creates the embedding service for one provider.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, domain.NewConfigurationError("embedding.provider", "is not set")
	}
	if !settings.Provider.SupportsEmbedding() {
		return nil, domain.NewConfigurationError("embedding.provider",
			fmt.Sprintf("%s does not support embeddings", settings.Provider))
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderLocal:
		return local.NewEmbeddingService(settings.ResolvedDimensions()), nil

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the LLM service for settings. It returns
// (nil, nil) when no provider is configured; answers are then extractive only.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if !settings.Provider.SupportsLLM() {
		return nil, domain.NewConfigurationError("llm.provider",
			fmt.Sprintf("%s does not support text generation", settings.Provider))
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}
