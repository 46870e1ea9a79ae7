// Package local provides an in-process embedding service based on feature hashing.
//
// Each lowercased word and each character trigram of a word is hashed into one
// of a fixed number of buckets with a sign taken from the hash, and the vector
// is L2-normalised. Texts sharing vocabulary land close together under cosine
// similarity. The service needs no network and no model download, which makes
// it the last resort of an embedding fallback chain and the embedder of choice
// in tests.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 384

// DefaultModel names the default configuration.
const DefaultModel = "hashing-384"

// trigramWeight scales sub-word features relative to whole words.
const trigramWeight = 0.5

// EmbeddingService hashes text into fixed-size vectors.
type EmbeddingService struct {
	dimensions int
	model      string
}

// NewEmbeddingService creates a hashing embedder. A non-positive
// dimension means DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	model := DefaultModel
	if dimensions != DefaultDimensions {
		model = "hashing-" + strconv.Itoa(dimensions)
	}
	return &EmbeddingService{dimensions: dimensions, model: model}
}

// Embed hashes one text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch hashes every text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(t)
	}
	return out, nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns "hashing-<dimensions>".
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping always succeeds.
func (s *EmbeddingService) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op.
func (s *EmbeddingService) Close() error { return nil }

func (s *EmbeddingService) vector(text string) []float32 {
	acc := make([]float64, s.dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		s.add(acc, "w:"+w, 1)
		runes := []rune("^" + w + "$")
		for i := 0; i+3 <= len(runes); i++ {
			s.add(acc, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

func (s *EmbeddingService) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}
