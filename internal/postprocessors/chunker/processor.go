// Package chunker provides a fixed-window text chunking processor.
//
// A window of chunk size runes slides over the normalised text and
// advances by chunk size minus overlap, so consecutive chunks share
// overlap runes of context. Chunks may split mid-sentence.
package chunker

import (
	"context"
	"strconv"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkMaxChars

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits document content into fixed-size chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
// An overlap at or above the chunk size is allowed; the window then advances by one.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Each chunk gets a deterministic ID from the document source and its position,
// and a payload carrying the document metadata, its display id and its text.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	parts := Split(doc.Content, p.chunkSize, p.overlap)
	if len(parts) == 0 {
		return nil, nil
	}

	base := doc.BaseMetadata()
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, text := range parts {
		meta := make(map[string]any, len(base)+2)
		for k, v := range base {
			meta[k] = v
		}
		meta[domain.MetaID] = DisplayID(doc.ID, i)
		meta[domain.MetaText] = text

		chunks = append(chunks, domain.Chunk{
			ID:         domain.PointID(doc.Source, i),
			DocumentID: doc.ID,
			Content:    text,
			Position:   i,
			Metadata:   meta,
		})
	}

	return chunks, nil
}

// Split normalises text and cuts it into windows of at most size runes.
// After each window the start advances by size-overlap, and by at least one,
// so the loop terminates for any overlap. Empty input yields no chunks.
//
// Windows are exact rune spans of the normalised text and are not trimmed:
// a cut next to a space leaves it at the window edge, so zero-overlap
// windows concatenate back to the normalised text.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(domain.CleanText(text))
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	chunks := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}

	return chunks
}

// DisplayID returns the human-facing chunk id "<docID>-<position>".
func DisplayID(docID string, position int) string {
	return docID + "-" + strconv.Itoa(position)
}
