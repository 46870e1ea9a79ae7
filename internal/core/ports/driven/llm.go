package driven

import "context"

// LLMService turns a filled answer prompt into text.
// It is optional: without one, answers are composed extractively.
type LLMService interface {
	// Generate returns the completion for prompt. Non-success provider
	// responses are errors, never partial text.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the configured model.
	ModelName() string

	// Ping makes the cheapest authenticated request the provider offers.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes one Generate call. Zero values use provider defaults.
type GenerateOptions struct {
	// System is sent through the provider's system channel, ahead of the prompt.
	System string

	MaxTokens   int
	Temperature float64

	// StopWords end generation when produced.
	StopWords []string
}
