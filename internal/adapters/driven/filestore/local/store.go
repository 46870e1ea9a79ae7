// Package local provides a driven.FileStore backed by a local directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FileStore = (*Store)(nil)

// RoutePrefix is the HTTP path under which stored files are served.
const RoutePrefix = "/files/"

// Store keeps files by base name in one directory.
type Store struct {
	dir     string
	baseURL string
}

// New creates a store in dir. publicBaseURL is the externally visible
// server address that file URLs are built on.
func New(dir, publicBaseURL string) (*Store, error) {
	if dir == "" {
		return nil, domain.NewConfigurationError("storage.upload_dir", "must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// checkName rejects anything that is not a plain file name.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return domain.NewValidationError("filename", fmt.Sprintf("invalid file name %q", name))
	}
	return nil
}

// Save writes the content atomically, replacing any previous file of that name.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return s.URL(name), nil
}

// Open returns the stored file.
func (s *Store) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
	}
	return f, err
}

// URL returns <publicBaseURL>/files/<name>.
func (s *Store) URL(name string) string {
	return s.baseURL + RoutePrefix + url.PathEscape(name)
}
