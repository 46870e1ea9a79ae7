package driven

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// PostProcessor is one stage of passage preparation. The first stage of a
// pipeline receives nil and creates passages from doc; later stages filter
// or rewrite the passages they are given.
type PostProcessor interface {
	// Name is the key used in pipeline configuration.
	Name() string

	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a normalised document into indexable passages.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
