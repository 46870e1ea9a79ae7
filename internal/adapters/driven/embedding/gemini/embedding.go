// Package gemini provides an embedding service adapter for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-004"

// TaskRetrievalDocument tunes embeddings for indexed passages.
const TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"

const providerName = "gemini"

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Dimensions requests a reduced output size. Zero keeps the model's size.
	Dimensions int

	// BaseURL overrides the API endpoint. Useful for testing.
	BaseURL string

	// HTTPClient replaces the default client.
	HTTPClient *http.Client
}

// EmbeddingService generates embeddings with genai.
type EmbeddingService struct {
	client     *genai.Client
	model      string
	dimensions int
	reduced    bool
}

// NewEmbeddingService creates a Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("embedding.api_key", "is required for gemini")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if dimensions == 0 {
		return nil, domain.NewConfigurationError("embedding.dimensions",
			fmt.Sprintf("unknown for model %q; set it explicitly", cfg.Model))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, domain.NewProviderError(providerName, "connect", err)
	}

	return &EmbeddingService{
		client:     client,
		model:      cfg.Model,
		dimensions: dimensions,
		reduced:    cfg.Dimensions > 0,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	config := &genai.EmbedContentConfig{TaskType: TaskRetrievalDocument}
	if s.reduced {
		dim := int32(s.dimensions)
		config.OutputDimensionality = &dim
	}

	resp, err := s.client.Models.EmbedContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, domain.NewProviderError(providerName, "embed", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, domain.NewProviderError(providerName, "embed",
			fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts)))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, domain.NewProviderError(providerName, "embed", fmt.Errorf("empty embedding at %d", i))
		}
		out[i] = e.Values
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the model name.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping fetches the model's metadata.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return domain.NewProviderError(providerName, "ping", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error { return nil }
