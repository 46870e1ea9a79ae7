// Package gemini provides an LLM service adapter for the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

const providerName = "gemini"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the generation model (default: gemini-2.0-flash).
	Model string

	// BaseURL overrides the API endpoint. Useful for testing.
	BaseURL string

	// HTTPClient replaces the default client.
	HTTPClient *http.Client
}

// LLMService generates text with genai.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("llm.api_key", "is required for gemini")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
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
	return &LLMService{client: client, model: cfg.Model}, nil
}

func generateConfig(opts driven.GenerateOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{StopSequences: opts.StopWords}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	return cfg
}

// Generate sends prompt as one user turn. opts.System becomes the system instruction.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.generate(ctx, genai.Text(prompt), generateConfig(opts))
}

func (s *LLMService) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, cfg)
	if err != nil {
		return "", domain.NewProviderError(providerName, "generate", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.NewProviderError(providerName, "generate", errors.New("empty response"))
	}
	return text, nil
}

// ModelName returns the model name.
func (s *LLMService) ModelName() string { return s.model }

// Ping fetches the model's metadata.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return domain.NewProviderError(providerName, "ping", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error { return nil }
