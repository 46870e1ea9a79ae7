package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Extractor turns a filename and its bytes into canonical text.
// The lowercased extension selects the normaliser; unknown extensions
// are decoded as UTF-8 text.
type Extractor struct {
	registry driven.NormaliserRegistry
}

// NewExtractor creates an extractor backed by the given normaliser registry.
func NewExtractor(registry driven.NormaliserRegistry) *Extractor {
	return &Extractor{registry: registry}
}

// Extract returns the whitespace-normalised text of the file.
// A decoder failure is returned as a *domain.ParseError naming the file.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	raw := &domain.RawDocument{Filename: filename, Content: data}

	result, err := e.registry.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", &domain.ParseError{Filename: filename, Err: err}
	}

	return domain.CleanText(result.Content), nil
}
