// Package cache provides an expiring LRU cache in front of an embedding service.
// Repeated queries and re-ingested passages skip the provider round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder caches vectors by model and text.
type Embedder struct {
	next  driven.EmbeddingService
	cache *expirable.LRU[string, []float32]
}

// Wrap returns next behind a cache of size entries that expire after ttl.
// A non-positive size or ttl returns next unchanged.
func Wrap(next driven.EmbeddingService, size int, ttl time.Duration) driven.EmbeddingService {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &Embedder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.next.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed returns a cached vector or asks the wrapped service.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)
	if cached, ok := e.cache.Get(key); ok {
		logger.Debug("embedding cache hit")
		return clone(cached), nil
	}
	res, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, clone(res))
	return res, nil
}

// EmbedBatch sends only the cache misses to the wrapped service, in one call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missing []string
	var missingIdx []int
	for i, t := range texts {
		keys[i] = e.key(t)
		if cached, ok := e.cache.Get(keys[i]); ok {
			out[i] = clone(cached)
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	res, err := e.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range res {
		if j >= len(missingIdx) {
			break
		}
		i := missingIdx[j]
		out[i] = vec
		e.cache.Add(keys[i], clone(vec))
	}
	return out, nil
}

// Dimensions returns the wrapped service's vector size.
func (e *Embedder) Dimensions() int { return e.next.Dimensions() }

// ModelName returns the wrapped service's model name.
func (e *Embedder) ModelName() string { return e.next.ModelName() }

// Ping pings the wrapped service.
func (e *Embedder) Ping(ctx context.Context) error { return e.next.Ping(ctx) }

// Close purges the cache and closes the wrapped service.
func (e *Embedder) Close() error {
	e.cache.Purge()
	return e.next.Close()
}

// Len returns the number of cached vectors.
func (e *Embedder) Len() int { return e.cache.Len() }

func clone(values []float32) []float32 {
	if values == nil {
		return nil
	}
	out := make([]float32, len(values))
	copy(out, values)
	return out
}
