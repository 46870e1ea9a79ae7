// Package csv linearises tabular CSV files into one line of text per row.
package csv

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrNoHeader is returned for a file without a header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Normaliser handles CSV documents.
type Normaliser struct {
	comma rune
}

// Option configures the CSV normaliser.
type Option func(*Normaliser)

// WithComma sets the field delimiter.
func WithComma(r rune) Option {
	return func(n *Normaliser) {
		if r != 0 {
			n.comma = r
		}
	}
}

// New creates a new CSV normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{comma: ','}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise renders each data row as "col1: v1; col2: v2" in header order
// and joins rows with newlines. Short rows leave trailing columns empty;
// a row with more fields than the header is malformed.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	data := bytes.TrimPrefix(raw.Content, []byte("\xef\xbb\xbf"))
	r := stdcsv.NewReader(bytes.NewReader(data))
	r.Comma = n.comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	var lines []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("csv: line %d: expected %d fields, saw %d", line, len(header), len(record))
		}
		lines = append(lines, linearise(header, record))
	}

	return &driven.NormaliseResult{Content: strings.Join(lines, "\n")}, nil
}

// linearise renders one row against the header.
func linearise(header, record []string) string {
	parts := make([]string, len(header))
	for i, col := range header {
		var v string
		if i < len(record) {
			v = record[i]
		}
		parts[i] = col + ": " + v
	}
	return strings.Join(parts, "; ")
}
