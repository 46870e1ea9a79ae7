package driven

import "context"

// EmbeddingService maps text to vectors.
//
// Every passage of a collection and every query against it must be embedded
// by services reporting the same Dimensions, otherwise stored and query
// vectors are not comparable. Adapters exist for Ollama, OpenAI, Gemini and
// a local hashing embedder, plus fallback, cache and rate-limit decorators.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length. It never changes for a service.
	Dimensions() int

	ModelName() string

	// Ping makes the cheapest request that proves the provider is usable.
	Ping(ctx context.Context) error

	Close() error
}
