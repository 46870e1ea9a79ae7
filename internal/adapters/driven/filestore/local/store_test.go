package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"), "http://localhost:8000/")
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := New("", "http://x")
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	s := newStore(t)
	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveAndOpen(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	url, err := s.Save(ctx, "notes.txt", strings.NewReader("first"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/files/notes.txt", url)

	_, err = s.Save(ctx, "notes.txt", strings.NewReader("second"))
	require.NoError(t, err)

	rc, err := s.Open(ctx, "notes.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestOpen_Missing(t *testing.T) {
	s := newStore(t)
	_, err := s.Open(context.Background(), "absent.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvalidNames(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"", ".", "..", "../escape.txt", "a/b.txt", `a\b.txt`} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(context.Background(), name, strings.NewReader("x"))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			_, err = s.Open(context.Background(), name)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestURL_Escapes(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, "http://localhost:8000/files/Q3%20report.pdf", s.URL("Q3 report.pdf"))
}

func TestSave_Cancelled(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Save(ctx, "x.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
