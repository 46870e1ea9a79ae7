// Package ratelimit throttles calls to an embedding provider with a token bucket.
package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder waits for a token before every provider request.
// A batch counts as one request.
type Embedder struct {
	next   driven.EmbeddingService
	bucket *rate.Limiter
}

// Wrap limits next to perSec requests per second. The burst is perSec
// rounded up. A non-positive rate returns next unchanged.
func Wrap(next driven.EmbeddingService, perSec float64) driven.EmbeddingService {
	if next == nil || perSec <= 0 {
		return next
	}
	burst := int(math.Ceil(perSec))
	return &Embedder{
		next:   next,
		bucket: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// Embed waits for a token, then embeds.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return e.next.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds the batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return e.next.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector size.
func (e *Embedder) Dimensions() int { return e.next.Dimensions() }

// ModelName returns the wrapped service's model name.
func (e *Embedder) ModelName() string { return e.next.ModelName() }

// Ping is not throttled.
func (e *Embedder) Ping(ctx context.Context) error { return e.next.Ping(ctx) }

// Close closes the wrapped service.
func (e *Embedder) Close() error { return e.next.Close() }
