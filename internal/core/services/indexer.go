package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Indexer embeds chunks and writes them to the vector store.
type Indexer struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore

	// ensured memoises collections already created in this process.
	ensured sync.Map
}

// NewIndexer creates an indexer.
func NewIndexer(embedder driven.EmbeddingService, store driven.VectorStore) *Indexer {
	return &Indexer{embedder: embedder, store: store}
}

// EnsureCollection creates the collection with the embedder's dimension
// once per process.
func (ix *Indexer) EnsureCollection(ctx context.Context, collection string) error {
	if _, ok := ix.ensured.Load(collection); ok {
		return nil
	}
	if err := ix.store.EnsureCollection(ctx, collection, ix.embedder.Dimensions(), domain.DistanceCosine); err != nil {
		return err
	}
	ix.ensured.Store(collection, struct{}{})
	return nil
}

// Forget drops the memoised state for a collection so the next write
// ensures it again.
func (ix *Indexer) Forget(collection string) {
	ix.ensured.Delete(collection)
}

// Recreate ensures the collection against the store regardless of the
// memo, then records it. Used after the collection was dropped.
func (ix *Indexer) Recreate(ctx context.Context, collection string) error {
	ix.ensured.Delete(collection)
	return ix.EnsureCollection(ctx, collection)
}

// Index embeds every chunk in one batch and upserts the records.
// Records are keyed by chunk ID, so indexing the same chunks again
// overwrites them. Returns the number of records written.
func (ix *Indexer) Index(ctx context.Context, collection string, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, asProviderError(ix.embedder.ModelName(), "embed", err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.NewProviderError(ix.embedder.ModelName(), "embed",
			fmt.Errorf("got %d vectors for %d passages", len(vectors), len(chunks)))
	}

	dim := ix.embedder.Dimensions()
	for i, v := range vectors {
		if len(v) != dim {
			return 0, domain.NewProviderError(ix.embedder.ModelName(), "embed",
				fmt.Errorf("%w: vector %d has %d dimensions, want %d", domain.ErrDimensionMismatch, i, len(v), dim))
		}
	}

	if err := ix.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		payload := make(map[string]any, len(c.Metadata)+1)
		for k, v := range c.Metadata {
			payload[k] = v
		}
		payload[domain.MetaText] = c.Content

		records[i] = domain.VectorRecord{ID: c.ID, Vector: vectors[i], Payload: payload}
	}

	err = ix.store.Upsert(ctx, collection, records)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		// Dropped since it was memoised, by a reset or outside the process.
		logger.Warn("Collection %s disappeared, recreating it", collection)
		if err := ix.Recreate(ctx, collection); err != nil {
			return 0, err
		}
		err = ix.store.Upsert(ctx, collection, records)
	}
	if err != nil {
		return 0, fmt.Errorf("upsert into %s: %w", collection, err)
	}

	logger.Debug("Indexed %d passages into %s", len(records), collection)
	return len(records), nil
}
