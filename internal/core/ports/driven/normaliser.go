package driven

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// Normaliser decodes one file format into text.
// Each normaliser handles a set of filename extensions (e.g., pdf, docx).
type Normaliser interface {
	// SupportedExtensions returns the lowercased extensions, without dots, this normaliser handles.
	// An empty slice marks a fallback normaliser.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the text of a raw document.
	// Malformed content is reported as an error; the caller wraps it as a ParseError.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Content is the extracted text. It is not yet whitespace-normalised.
	Content string

	// Title is an optional title found in the document.
	Title string
}
