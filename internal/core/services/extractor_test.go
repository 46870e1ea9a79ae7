package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/normalisers"
)

// failingRegistry fails every normalisation with err.
type failingRegistry struct {
	err error
}

func (r failingRegistry) Normalise(_ context.Context, _ *domain.RawDocument) (*driven.NormaliseResult, error) {
	return nil, r.err
}
func (r failingRegistry) Register(_ driven.Normaliser)  {}
func (r failingRegistry) SupportedExtensions() []string { return nil }

func TestExtractor_Extract(t *testing.T) {
	ex := NewExtractor(normalisers.NewDefaultRegistry())
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		data     string
		want     string
	}{
		{"plain text is cleaned", "notes.txt", "  hello \n\n  world\t ", "hello world"},
		{"unknown extension decodes as text", "data.xyz", "a  b", "a b"},
		{"no extension", "README", "readme", "readme"},
		{"markdown", "guide.MD", "# Title\n\nSome *body* text.", "Title Some body text."},
		{"csv", "people.csv", "name,age\nAda,36\n", "name: Ada; age: 36"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.Extract(ctx, tt.filename, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_ParseError(t *testing.T) {
	ex := NewExtractor(normalisers.NewDefaultRegistry())

	_, err := ex.Extract(context.Background(), "broken.docx", []byte("not a zip archive"))

	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "broken.docx", pe.Filename)
	assert.True(t, IsClientError(err))
}

func TestExtractor_ContextErrorsPassThrough(t *testing.T) {
	for _, cause := range []error{context.Canceled, context.DeadlineExceeded} {
		ex := NewExtractor(failingRegistry{err: cause})

		_, err := ex.Extract(context.Background(), "a.pdf", []byte("x"))

		var pe *domain.ParseError
		assert.False(t, errors.As(err, &pe))
		assert.ErrorIs(t, err, cause)
	}
}
