// Package storetest is a conformance suite run against every
// driven.VectorStore implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) driven.VectorStore

func record(id string, vec []float32, source, text string) domain.VectorRecord {
	return domain.VectorRecord{
		ID:     id,
		Vector: vec,
		Payload: map[string]any{
			domain.MetaText:     text,
			domain.MetaSource:   source,
			domain.MetaFileType: "txt",
			domain.MetaID:       source + "-0",
		},
	}
}

// Run exercises the VectorStore contract.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	idA := domain.PointID("a.txt", 0)
	idB := domain.PointID("b.txt", 0)
	idC := domain.PointID("c.txt", 0)

	t.Run("ensure is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))

		n, err := s.Count(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("ensure rejects dimension change", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))

		err := s.EnsureCollection(ctx, "docs", 4, domain.DistanceCosine)
		var cfgErr *domain.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
	})

	t.Run("search orders by similarity", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))
		require.NoError(t, s.Upsert(ctx, "docs", []domain.VectorRecord{
			record(idA, []float32{1, 0, 0}, "a.txt", "alpha"),
			record(idB, []float32{0, 1, 0}, "b.txt", "beta"),
			record(idC, []float32{0.9, 0.1, 0}, "c.txt", "gamma"),
		}))

		hits, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 2, nil)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, idA, hits[0].ID)
		assert.Equal(t, "alpha", hits[0].Text)
		assert.Equal(t, "a.txt", hits[0].Metadata[domain.MetaSource])
		assert.NotContains(t, hits[0].Metadata, domain.MetaText)
		assert.Equal(t, idC, hits[1].ID)
		assert.Greater(t, hits[0].Score, hits[1].Score)
	})

	t.Run("search applies equality filter", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))
		require.NoError(t, s.Upsert(ctx, "docs", []domain.VectorRecord{
			record(idA, []float32{1, 0, 0}, "a.txt", "alpha"),
			record(idB, []float32{0, 1, 0}, "b.txt", "beta"),
		}))

		hits, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 5, map[string]any{domain.MetaSource: "b.txt"})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, idB, hits[0].ID)
	})

	t.Run("empty collection yields no hits", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))

		hits, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("upsert overwrites by id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))
		require.NoError(t, s.Upsert(ctx, "docs", []domain.VectorRecord{record(idA, []float32{1, 0, 0}, "a.txt", "v1")}))
		require.NoError(t, s.Upsert(ctx, "docs", []domain.VectorRecord{record(idA, []float32{0, 1, 0}, "a.txt", "v2")}))

		n, err := s.Count(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		hits, err := s.Search(ctx, "docs", []float32{0, 1, 0}, 1, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "v2", hits[0].Text)
	})

	t.Run("delete collection", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))
		require.NoError(t, s.Upsert(ctx, "docs", []domain.VectorRecord{record(idA, []float32{1, 0, 0}, "a.txt", "alpha")}))

		require.NoError(t, s.DeleteCollection(ctx, "docs"))
		require.NoError(t, s.DeleteCollection(ctx, "docs"))

		_, err := s.Count(ctx, "docs")
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

		require.NoError(t, s.EnsureCollection(ctx, "docs", 4, domain.DistanceCosine))
		n, err := s.Count(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))
		require.NoError(t, s.EnsureCollection(ctx, "faq", 3, domain.DistanceCosine))
		require.NoError(t, s.Upsert(ctx, "faq", []domain.VectorRecord{record(idA, []float32{1, 0, 0}, "a.txt", "alpha")}))

		hits, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("upsert into missing collection", func(t *testing.T) {
		s := newStore(t)

		err := s.Upsert(ctx, "docs", []domain.VectorRecord{record(idA, []float32{1, 0, 0}, "a.txt", "alpha")})
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	})

	t.Run("upsert rejects wrong dimension", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))

		err := s.Upsert(ctx, "docs", []domain.VectorRecord{record(idA, []float32{1, 0}, "a.txt", "alpha")})
		assert.Error(t, err)
	})
}
