package domain

// FileResult reports the outcome of ingesting one file of a batch.
type FileResult struct {
	Filename string
	Indexed  int
	URL      string
	Err      error
}

// OK reports whether the file was indexed.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// IngestReport aggregates per-file results of a batch.
type IngestReport struct {
	Files   []FileResult
	Indexed int
}

// Failed returns the results that carry an error.
func (r *IngestReport) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// AllFailed reports whether the batch was non-empty and nothing succeeded.
func (r *IngestReport) AllFailed() bool {
	return len(r.Files) > 0 && len(r.Failed()) == len(r.Files)
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Filename string
	Content  []byte
}

// CMSRecord is a structured record pushed from a content management system.
type CMSRecord struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	Body     string `json:"body"`
	URL      string `json:"url,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

// CMSImport is a batch of CMS records for one collection.
type CMSImport struct {
	Collection string      `json:"collection,omitempty"`
	Records    []CMSRecord `json:"records"`
}

// DefaultCMSSource labels records that carry no title.
const DefaultCMSSource = "CMS"

// DefaultCMSFileType tags records that carry no file type.
const DefaultCMSFileType = "cms"
