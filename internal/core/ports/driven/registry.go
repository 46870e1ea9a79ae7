package driven

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// NormaliserRegistry picks the Normaliser for a file by its extension.
// Unknown extensions are decoded as plain text.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds n, ordered by priority among normalisers for the same extension.
	Register(n Normaliser)

	// SupportedExtensions lists extensions with a dedicated normaliser, sorted.
	SupportedExtensions() []string
}
