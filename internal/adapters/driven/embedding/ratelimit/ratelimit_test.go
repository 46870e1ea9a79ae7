package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/local"
)

func TestWrap_Disabled(t *testing.T) {
	next := local.NewEmbeddingService(8)
	assert.Same(t, next, Wrap(next, 0))
}

func TestEmbedder_Throttles(t *testing.T) {
	e := Wrap(local.NewEmbeddingService(8), 20)

	// The burst of 20 is free; the next 5 need about 250ms.
	start := time.Now()
	for i := 0; i < 25; i++ {
		_, err := e.Embed(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestEmbedder_HonoursCancellation(t *testing.T) {
	e := Wrap(local.NewEmbeddingService(8), 0.001)

	_, err := e.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = e.EmbedBatch(ctx, []string{"y"})
	assert.Error(t, err)
}

func TestEmbedder_Delegates(t *testing.T) {
	e := Wrap(local.NewEmbeddingService(8), 100)
	assert.Equal(t, 8, e.Dimensions())
	assert.Equal(t, "hashing-8", e.ModelName())
	assert.NoError(t, e.Ping(context.Background()))
	assert.NoError(t, e.Close())
}
