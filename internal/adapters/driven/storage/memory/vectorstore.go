package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type collection struct {
	dimension int
	records   map[string]domain.VectorRecord
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is a brute-force cosine scan.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*collection)}
}

// EnsureCollection creates the collection if absent.
func (s *VectorStore) EnsureCollection(_ context.Context, name string, dimension int, metric string) error {
	if metric != domain.DistanceCosine {
		return domain.NewConfigurationError("vector.metric", fmt.Sprintf("unsupported metric %q", metric))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.dimension != dimension {
			return domain.NewConfigurationError("embedding.dimensions",
				fmt.Sprintf("collection %s has dimension %d, embedder produces %d", name, c.dimension, dimension))
		}
		return nil
	}
	s.collections[name] = &collection{dimension: dimension, records: make(map[string]domain.VectorRecord)}
	return nil
}

// Upsert writes records, replacing any with the same ID.
func (s *VectorStore) Upsert(_ context.Context, name string, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	for _, r := range records {
		if len(r.Vector) != c.dimension {
			return fmt.Errorf("%w: record %s has %d dimensions, collection %s has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), name, c.dimension)
		}
	}
	for _, r := range records {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		payload := make(map[string]any, len(r.Payload))
		for k, v := range r.Payload {
			payload[k] = v
		}
		c.records[r.ID] = domain.VectorRecord{ID: r.ID, Vector: vec, Payload: payload}
	}
	return nil
}

// Search scores every matching record and returns the best topK.
func (s *VectorStore) Search(_ context.Context, name string, vector []float32, topK int, filter map[string]any) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, len(vector), name, c.dimension)
	}

	hits := make([]domain.Hit, 0, len(c.records))
	for _, r := range c.records {
		if !vecmath.Matches(r.Payload, filter) {
			continue
		}
		text, meta := vecmath.SplitPayload(r.Payload)
		hits = append(hits, domain.Hit{
			ID:       r.ID,
			Text:     text,
			Metadata: meta,
			Score:    vecmath.Cosine(vector, r.Vector),
		})
	}
	return vecmath.TopK(hits, topK), nil
}

// DeleteCollection drops the collection. Missing collections are ignored.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Count returns the number of records in the collection.
func (s *VectorStore) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return len(c.records), nil
}

// Close releases resources (no-op for memory store).
func (s *VectorStore) Close() error {
	return nil
}
