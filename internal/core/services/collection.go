package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages the default collection.
type CollectionService struct {
	indexer    *Indexer
	store      driven.VectorStore
	embedder   driven.EmbeddingService
	collection string
}

// NewCollectionService creates a collection service for collection.
func NewCollectionService(
	indexer *Indexer,
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	collection string,
) *CollectionService {
	return &CollectionService{
		indexer:    indexer,
		store:      store,
		embedder:   embedder,
		collection: collection,
	}
}

// Health ensures the collection exists and reports the embedding model.
func (s *CollectionService) Health(ctx context.Context) (*driving.HealthStatus, error) {
	if err := s.indexer.EnsureCollection(ctx, s.collection); err != nil {
		return nil, err
	}
	return &driving.HealthStatus{
		Status:         "ok",
		EmbeddingModel: s.embedder.ModelName(),
		Collection:     s.collection,
	}, nil
}

// Reset drops the collection and recreates it empty. The recreate always
// reaches the store, whatever writes ran while the drop was in flight.
func (s *CollectionService) Reset(ctx context.Context) error {
	logger.Section("Reset " + s.collection)

	if err := s.store.DeleteCollection(ctx, s.collection); err != nil {
		return err
	}
	return s.indexer.Recreate(ctx, s.collection)
}

// Stats describes the collection. A missing collection reports zero records.
func (s *CollectionService) Stats(ctx context.Context) (*domain.CollectionInfo, error) {
	count, err := s.store.Count(ctx, s.collection)
	if err != nil && !errors.Is(err, domain.ErrCollectionNotFound) {
		return nil, err
	}
	return &domain.CollectionInfo{
		Name:      s.collection,
		Dimension: s.embedder.Dimensions(),
		Metric:    domain.DistanceCosine,
		Count:     count,
	}, nil
}
