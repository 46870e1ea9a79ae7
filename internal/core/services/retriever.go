package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Retriever runs similarity search for natural-language queries.
type Retriever struct {
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	collection string
}

// NewRetriever creates a retriever searching collection by default.
func NewRetriever(embedder driven.EmbeddingService, store driven.VectorStore, collection string) *Retriever {
	return &Retriever{embedder: embedder, store: store, collection: collection}
}

// Retrieve embeds the query and returns up to TopK hits, best first.
// TopK is clamped to [1,10]. No hits, including a missing collection,
// is an empty slice and no error.
func (r *Retriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Hit, error) {
	text := domain.CleanText(q.Text)
	if text == "" {
		return nil, domain.NewValidationError("query", "must not be empty")
	}

	topK := domain.ClampTopK(q.TopK)
	collection := q.Collection
	if collection == "" {
		collection = r.collection
	}

	logger.Debug("Retrieve: %q top_k=%d collection=%s", text, topK, collection)

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, asProviderError(r.embedder.ModelName(), "embed query", err)
	}

	hits, err := r.store.Search(ctx, collection, vector, topK, q.Filter)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return []domain.Hit{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(hits) > topK {
		hits = hits[:topK]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}
	if hits == nil {
		hits = []domain.Hit{}
	}

	logger.Debug("Retrieve: %d hits", len(hits))
	return hits, nil
}

// asProviderError wraps err as a ProviderError unless it already is one
// or the context ended.
func asProviderError(provider, op string, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.NewProviderError(provider, op, err)
}
