package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragline/internal/core/domain"
)

func newCollectionService(st *stack) *CollectionService {
	return NewCollectionService(st.indexer, st.store, st.embedder, testCollection)
}

func TestCollectionService_Health(t *testing.T) {
	st := newStack(domain.DefaultChunkMaxChars, domain.DefaultChunkOverlap)
	ctx := context.Background()

	status, err := newCollectionService(st).Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "hashing-384", status.EmbeddingModel)
	assert.Equal(t, testCollection, status.Collection)

	count, err := st.store.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCollectionService_Reset(t *testing.T) {
	st := newStack(domain.DefaultChunkMaxChars, domain.DefaultChunkOverlap)
	svc := newCollectionService(st)
	ctx := context.Background()

	_, err := st.ingest.ImportCMS(ctx, domain.CMSImport{Records: []domain.CMSRecord{{Title: "FAQ", Body: "answer"}}})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))

	info, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.Count)

	// Writes after a reset land in the recreated collection.
	_, err = st.ingest.ImportCMS(ctx, domain.CMSImport{Records: []domain.CMSRecord{{Title: "FAQ", Body: "again"}}})
	require.NoError(t, err)
	info, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Count)
}

func TestCollectionService_ResetError(t *testing.T) {
	embedder := &mockEmbeddingService{embedding: []float32{1}}
	store := &mockVectorStore{deleteErr: errors.New("permission denied")}
	svc := NewCollectionService(NewIndexer(embedder, store), store, embedder, testCollection)

	assert.ErrorContains(t, svc.Reset(context.Background()), "permission denied")
}

func TestCollectionService_Stats_Missing(t *testing.T) {
	st := newStack(domain.DefaultChunkMaxChars, domain.DefaultChunkOverlap)

	info, err := newCollectionService(st).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionInfo{Name: testCollection, Dimension: 384, Metric: domain.DistanceCosine}, *info)
}

func TestCollectionService_ResetWithConcurrentIndex(t *testing.T) {
	ctx := context.Background()
	embedder := local.NewEmbeddingService(16)
	store := &hookedStore{VectorStore: memory.NewVectorStore()}
	ix := NewIndexer(embedder, store)
	svc := NewCollectionService(ix, store, embedder, testCollection)

	// A write lands while the drop is in flight and memoises the
	// collection that is about to disappear.
	store.onDelete = func() {
		_, err := ix.Index(ctx, testCollection, []domain.Chunk{{ID: domain.PointID("a.txt", 0), Content: "alpha"}})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Reset(ctx))
	store.onDelete = nil

	info, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.Count)

	n, err := ix.Index(ctx, testCollection, []domain.Chunk{{ID: domain.PointID("b.txt", 0), Content: "beta"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := store.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
