package domain

// Payload metadata keys stored alongside every vector record.
const (
	MetaText     = "text"
	MetaID       = "id"
	MetaSource   = "source"
	MetaFileType = "file_type"
	MetaURL      = "url"
	MetaTitle    = "title"
	MetaFilename = "filename"
)

// Document is one logical source before chunking.
// Uploaded files and CMS records both become a Document.
type Document struct {
	// ID is the display identifier stem. Chunk display ids are "<ID>-<position>".
	ID string

	// Source is the human-readable origin: a filename, a CMS title, or "CMS".
	// Chunk identities are derived from it, so it must be stable across re-ingestion.
	Source string

	// FileType is the format tag (e.g. "pdf", "csv", "cms").
	FileType string

	// URL is an optional link to the origin artifact.
	URL string

	// Title is an optional human-readable title.
	Title string

	// Filename is the base name of the origin file. Empty for CMS records.
	Filename string

	// Content is the canonical text after extraction.
	Content string

	// Metadata contains extra key-value pairs copied into every chunk payload.
	Metadata map[string]any
}

// Chunk is a bounded passage of a Document and the atomic retrievable unit.
type Chunk struct {
	// ID is the deterministic point identity derived from (source, position).
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the passage text. Never empty.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Metadata is the payload stored with the vector.
	Metadata map[string]any
}

// VectorRecord is one (id, vector, payload) triple written to a vector store.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// BaseMetadata returns the payload fields shared by every chunk of the document.
func (d *Document) BaseMetadata() map[string]any {
	meta := make(map[string]any, len(d.Metadata)+5)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[MetaSource] = d.Source
	meta[MetaFileType] = d.FileType
	if d.URL != "" {
		meta[MetaURL] = d.URL
	}
	if d.Title != "" {
		meta[MetaTitle] = d.Title
	}
	if d.Filename != "" {
		meta[MetaFilename] = d.Filename
	}
	return meta
}
