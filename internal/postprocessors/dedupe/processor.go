// Package dedupe drops passages whose text repeats earlier in the same document.
//
// Boilerplate such as repeated headers or footers in exported PDFs otherwise
// lands in the index once per page and crowds out useful hits. Positions of
// the kept passages are left untouched so point ids stay stable across
// re-ingestion.
package dedupe

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// Processor removes repeated passages. It must run after the chunker.
type Processor struct{}

// New returns a dedupe processor.
func New() *Processor { return &Processor{} }

// Name returns the processor name.
func (p *Processor) Name() string { return domain.ProcessorDedupe }

// Process keeps the first passage of every distinct fingerprint.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) < 2 {
		return chunks, nil
	}

	seen := make(map[string]struct{}, len(chunks))
	kept := chunks[:0:0]
	for _, c := range chunks {
		key := Fingerprint(c.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}
	return kept, nil
}

// Fingerprint folds case and collapses whitespace runs, so passages that
// differ only in spacing or capitalisation compare equal.
func Fingerprint(text string) string {
	return strings.ToLower(domain.CleanText(text))
}
