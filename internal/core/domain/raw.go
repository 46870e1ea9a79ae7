package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument is an uploaded or discovered file before extraction.
type RawDocument struct {
	// Filename is the original name. Only its extension drives format selection.
	Filename string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any
}

// Extension returns the lowercased extension without the dot, or "" if none.
func (r *RawDocument) Extension() string {
	return FileExtension(r.Filename)
}

// FileExtension returns the lowercased extension of name without the dot.
func FileExtension(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
