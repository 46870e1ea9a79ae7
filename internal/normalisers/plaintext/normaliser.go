// Package plaintext is the fallback normaliser: any file without a dedicated
// decoder is read as UTF-8 text.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns nil: the plain text normaliser is the fallback
// for every extension without a dedicated decoder.
func (n *Normaliser) SupportedExtensions() []string {
	return nil
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise decodes the bytes as UTF-8. Undecodable sequences are dropped,
// never reported.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.ToValidUTF8(string(raw.Content), "")
	content = strings.TrimPrefix(content, "\ufeff")

	return &driven.NormaliseResult{
		Content: content,
		Title:   titleFromMetadata(raw.Metadata),
	}, nil
}

// titleFromMetadata returns a caller-supplied title, or "".
func titleFromMetadata(meta map[string]any) string {
	title, _ := meta[domain.MetaTitle].(string)
	return title
}
