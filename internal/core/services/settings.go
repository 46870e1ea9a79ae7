package services

import (
	"fmt"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Config keys written by the settings service. They match the sections
// of the configuration file.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyAnswerMode      = "answer.mode"
	KeyEmbedProvider   = "embedding.provider"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedDimensions = "embedding.dimensions"
	KeyLLMProvider     = "llm.provider"
	KeyLLMModel        = "llm.model"
	KeyLLMBaseURL      = "llm.base_url"
	KeyLLMAPIKey       = "llm.api_key"
	KeyVectorBackend   = "vector.backend"
)

// defaultOllamaURL is used for local providers without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService edits provider and answer settings in the config file.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil to skip connectivity checks.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Embedding returns the stored embedding settings.
func (s *SettingsService) Embedding() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:   domain.AIProvider(s.configStore.GetString(KeyEmbedProvider)),
		Model:      s.configStore.GetString(KeyEmbedModel),
		BaseURL:    s.configStore.GetString(KeyEmbedBaseURL),
		APIKey:     s.configStore.GetString(KeyEmbedAPIKey),
		Dimensions: s.configStore.GetInt(KeyEmbedDimensions),
	}
}

// LLM returns the stored LLM settings.
func (s *SettingsService) LLM() domain.LLMSettings {
	return domain.LLMSettings{
		Provider: domain.AIProvider(s.configStore.GetString(KeyLLMProvider)),
		Model:    s.configStore.GetString(KeyLLMModel),
		BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
		APIKey:   s.configStore.GetString(KeyLLMAPIKey),
	}
}

// SetAnswerMode selects the default answer composer.
func (s *SettingsService) SetAnswerMode(mode string) error {
	if !domain.IsValidAnswerMode(mode) {
		return domain.NewValidationError("mode", fmt.Sprintf("unknown answer mode %q", mode))
	}
	if mode == domain.AnswerModeGenerative && !s.LLM().IsConfigured() {
		return domain.NewConfigurationError(KeyLLMProvider, "must be configured for generative answers")
	}
	return s.configStore.Set(KeyAnswerMode, mode)
}

// SetVectorBackend selects the vector store.
func (s *SettingsService) SetVectorBackend(backend string) error {
	if domain.IsValidVectorBackend(backend) {
		return s.configStore.Set(KeyVectorBackend, backend)
	}
	return domain.NewValidationError("backend", fmt.Sprintf("unknown vector backend %q", backend))
}

// SetEmbeddingProvider configures the embedding provider.
// Changing the model changes the vector dimension, so the collection
// has to be reset before indexing again.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return domain.NewValidationError("provider", fmt.Sprintf("invalid embedding provider: %s", provider))
	}
	if !provider.SupportsEmbedding() {
		return domain.NewValidationError("provider", fmt.Sprintf("provider %s does not support embeddings", provider))
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return domain.NewConfigurationError(KeyEmbedAPIKey, fmt.Sprintf("required for %s", provider))
	}

	settings := s.Embedding()
	settings.Provider = provider
	settings.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.BaseURL = baseURLFor(provider, settings.BaseURL)
	settings.APIKey = apiKey
	settings.Dimensions = domain.EmbeddingDimensions()[settings.Model]

	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateEmbedding(&settings); err != nil {
			return domain.NewProviderError(provider.String(), "validate", err)
		}
	}

	return s.save(map[string]any{
		KeyEmbedProvider:   settings.Provider.String(),
		KeyEmbedModel:      settings.Model,
		KeyEmbedBaseURL:    settings.BaseURL,
		KeyEmbedAPIKey:     settings.APIKey,
		KeyEmbedDimensions: settings.Dimensions,
	})
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsLLM() {
		return domain.NewValidationError("provider", fmt.Sprintf("invalid LLM provider: %s", provider))
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return domain.NewConfigurationError(KeyLLMAPIKey, fmt.Sprintf("required for %s", provider))
	}

	settings := s.LLM()
	settings.Provider = provider
	settings.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.BaseURL = baseURLFor(provider, settings.BaseURL)
	settings.APIKey = apiKey

	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateLLM(&settings); err != nil {
			return domain.NewProviderError(provider.String(), "validate", err)
		}
	}

	return s.save(map[string]any{
		KeyLLMProvider: settings.Provider.String(),
		KeyLLMModel:    settings.Model,
		KeyLLMBaseURL:  settings.BaseURL,
		KeyLLMAPIKey:   settings.APIKey,
	})
}

func (s *SettingsService) save(values map[string]any) error {
	for key, val := range values {
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a configured URL for Ollama, fills the default otherwise,
// and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	switch {
	case provider == domain.AIProviderOllama && current == "":
		return defaultOllamaURL
	case provider == domain.AIProviderOllama:
		return current
	default:
		return ""
	}
}
