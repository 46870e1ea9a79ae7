package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

func TestVectorStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) driven.VectorStore {
		return NewVectorStore()
	})
}

func TestVectorStore_MissingCollection(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()

	_, err := s.Search(ctx, "nope", []float32{1}, 5, nil)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	err = s.Upsert(ctx, "nope", []domain.VectorRecord{{ID: "x", Vector: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestVectorStore_RejectsOtherMetrics(t *testing.T) {
	err := NewVectorStore().EnsureCollection(context.Background(), "docs", 3, "dot")
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestVectorStore_UpsertCopiesInput(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()
	_ = s.EnsureCollection(ctx, "docs", 2, domain.DistanceCosine)

	vec := []float32{1, 0}
	payload := map[string]any{domain.MetaText: "a"}
	_ = s.Upsert(ctx, "docs", []domain.VectorRecord{{ID: "x", Vector: vec, Payload: payload}})

	vec[0] = 0
	payload[domain.MetaText] = "mutated"

	hits, err := s.Search(ctx, "docs", []float32{1, 0}, 1, nil)
	assert.NoError(t, err)
	assert.Equal(t, "a", hits[0].Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}
