package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// mockAIValidator records validation calls and returns a fixed error.
type mockAIValidator struct {
	err       error
	embedding *domain.EmbeddingSettings
	llm       *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(s *domain.EmbeddingSettings) error {
	m.embedding = s
	return m.err
}

func (m *mockAIValidator) ValidateLLM(s *domain.LLMSettings) error {
	m.llm = s
	return m.err
}

func TestSettingsService_ReadsStoredValues(t *testing.T) {
	store := newMockConfigStore()
	_ = store.Set(KeyEmbedProvider, "openai")
	_ = store.Set(KeyEmbedModel, "text-embedding-3-large")
	_ = store.Set(KeyEmbedAPIKey, "sk-test")
	_ = store.Set(KeyLLMProvider, "ollama")

	service := NewSettingsService(store, nil)

	emb := service.Embedding()
	assert.Equal(t, domain.AIProviderOpenAI, emb.Provider)
	assert.Equal(t, "text-embedding-3-large", emb.Model)
	assert.True(t, emb.IsConfigured())
	assert.Equal(t, 3072, emb.ResolvedDimensions())

	assert.Equal(t, domain.AIProviderOllama, service.LLM().Provider)
	assert.True(t, service.LLM().IsConfigured())
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.AIProvider
		model    string
		apiKey   string
		wantErr  any
		check    func(t *testing.T, s *SettingsService)
	}{
		{
			name:     "ollama defaults",
			provider: domain.AIProviderOllama,
			check: func(t *testing.T, s *SettingsService) {
				e := s.Embedding()
				assert.Equal(t, "nomic-embed-text", e.Model)
				assert.Equal(t, "http://localhost:11434", e.BaseURL)
				assert.Equal(t, 768, e.Dimensions)
			},
		},
		{
			name:     "local hashing",
			provider: domain.AIProviderLocal,
			check: func(t *testing.T, s *SettingsService) {
				assert.Equal(t, "hashing-384", s.Embedding().Model)
				assert.Equal(t, 384, s.Embedding().Dimensions)
			},
		},
		{
			name:     "openai with key",
			provider: domain.AIProviderOpenAI,
			model:    "text-embedding-3-large",
			apiKey:   "sk-test",
			check: func(t *testing.T, s *SettingsService) {
				assert.Equal(t, "sk-test", s.Embedding().APIKey)
				assert.Empty(t, s.Embedding().BaseURL)
				assert.Equal(t, 3072, s.Embedding().Dimensions)
			},
		},
		{name: "openai without key", provider: domain.AIProviderOpenAI, wantErr: &domain.ConfigurationError{}},
		{name: "anthropic has no embeddings", provider: domain.AIProviderAnthropic, apiKey: "k", wantErr: &domain.ValidationError{}},
		{name: "unknown provider", provider: "bogus", wantErr: &domain.ValidationError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettingsService(newMockConfigStore(), nil)
			err := s.SetEmbeddingProvider(tt.provider, tt.model, tt.apiKey)

			switch want := tt.wantErr.(type) {
			case *domain.ConfigurationError:
				assert.ErrorAs(t, err, &want)
			case *domain.ValidationError:
				assert.ErrorAs(t, err, &want)
			default:
				require.NoError(t, err)
				tt.check(t, s)
			}
		})
	}
}

func TestSettingsService_ValidatorFailure(t *testing.T) {
	store := newMockConfigStore()
	validator := &mockAIValidator{err: errors.New("connection refused")}
	s := NewSettingsService(store, validator)

	err := s.SetEmbeddingProvider(domain.AIProviderOllama, "", "")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	require.NotNil(t, validator.embedding)
	assert.Equal(t, "nomic-embed-text", validator.embedding.Model)
	assert.Empty(t, store.GetString(KeyEmbedProvider), "nothing saved on failure")

	err = s.SetLLMProvider(domain.AIProviderOllama, "", "")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Empty(t, store.GetString(KeyLLMProvider))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	s := NewSettingsService(newMockConfigStore(), &mockAIValidator{})

	require.NoError(t, s.SetLLMProvider(domain.AIProviderAnthropic, "", "key"))
	assert.Equal(t, "claude-3-5-sonnet-latest", s.LLM().Model)

	var ve *domain.ValidationError
	assert.ErrorAs(t, s.SetLLMProvider(domain.AIProviderLocal, "", ""), &ve)

	var ce *domain.ConfigurationError
	assert.ErrorAs(t, s.SetLLMProvider(domain.AIProviderGemini, "", ""), &ce)
}

func TestSettingsService_SetAnswerMode(t *testing.T) {
	store := newMockConfigStore()
	s := NewSettingsService(store, nil)

	var ve *domain.ValidationError
	assert.ErrorAs(t, s.SetAnswerMode("poetic"), &ve)

	var ce *domain.ConfigurationError
	require.ErrorAs(t, s.SetAnswerMode(domain.AnswerModeGenerative), &ce)
	assert.Equal(t, KeyLLMProvider, ce.Key)

	require.NoError(t, s.SetAnswerMode(domain.AnswerModeExtractive))
	assert.Equal(t, domain.AnswerModeExtractive, store.GetString(KeyAnswerMode))

	require.NoError(t, s.SetLLMProvider(domain.AIProviderOllama, "", ""))
	require.NoError(t, s.SetAnswerMode(domain.AnswerModeGenerative))
	assert.Equal(t, domain.AnswerModeGenerative, store.GetString(KeyAnswerMode))
}

func TestSettingsService_SetVectorBackend(t *testing.T) {
	store := newMockConfigStore()
	s := NewSettingsService(store, nil)

	for _, b := range domain.VectorBackends() {
		require.NoError(t, s.SetVectorBackend(b))
		assert.Equal(t, b, store.GetString(KeyVectorBackend))
	}
	assert.ErrorIs(t, s.SetVectorBackend("faiss"), domain.ErrInvalidInput)
}
