package driven

import (
	"context"
	"io"
)

// FileStore retains uploaded files so answers can cite them by URL.
type FileStore interface {
	// Save stores the content under name, replacing any previous file,
	// and returns the public URL.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Open returns the stored file. Returns domain.ErrNotFound if absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// URL returns the public URL for name without checking it exists.
	URL(name string) string
}
