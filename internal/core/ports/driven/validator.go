package driven

import "github.com/custodia-labs/ragline/internal/core/domain"

// AIConfigValidator checks provider settings by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding builds the embedding service and pings it.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM builds the LLM service and pings it.
	ValidateLLM(settings *domain.LLMSettings) error
}
