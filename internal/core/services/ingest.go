package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs Extractor, chunking pipeline and Indexer over files
// and CMS records.
type IngestService struct {
	extractor  *Extractor
	pipeline   driven.PostProcessorPipeline
	indexer    *Indexer
	files      driven.FileStore
	collection string
}

// NewIngestService creates an ingest service writing to collection.
// files is optional; without it uploads are indexed but not retained.
func NewIngestService(
	extractor *Extractor,
	pipeline driven.PostProcessorPipeline,
	indexer *Indexer,
	files driven.FileStore,
	collection string,
) *IngestService {
	return &IngestService{
		extractor:  extractor,
		pipeline:   pipeline,
		indexer:    indexer,
		files:      files,
		collection: collection,
	}
}

// UploadFiles indexes each file independently into the default collection.
// A failing file is reported in its result and the batch continues;
// none of its passages are written.
func (s *IngestService) UploadFiles(ctx context.Context, files []domain.UploadFile) (*domain.IngestReport, error) {
	if len(files) == 0 {
		return nil, domain.NewValidationError("files", "no files uploaded")
	}

	logger.Section("Upload")
	report := &domain.IngestReport{Files: make([]domain.FileResult, 0, len(files))}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := s.uploadOne(ctx, f)
		if result.Err != nil {
			logger.Warn("Upload %s failed: %v", result.Filename, result.Err)
		} else {
			logger.Info("Upload %s: %d passages", result.Filename, result.Indexed)
		}
		report.Files = append(report.Files, result)
		report.Indexed += result.Indexed
	}

	return report, nil
}

func (s *IngestService) uploadOne(ctx context.Context, f domain.UploadFile) domain.FileResult {
	name := SanitizeFilename(f.Filename)
	result := domain.FileResult{Filename: name}
	if name == "" {
		result.Filename = f.Filename
		result.Err = domain.NewValidationError("filename", "invalid file name")
		return result
	}

	text, err := s.extractor.Extract(ctx, name, f.Content)
	if err != nil {
		result.Err = err
		return result
	}

	if s.files != nil {
		url, err := s.files.Save(ctx, name, bytes.NewReader(f.Content))
		if err != nil {
			result.Err = fmt.Errorf("store %s: %w", name, err)
			return result
		}
		result.URL = url
	}

	result.Indexed, result.Err = s.indexText(ctx, name, text, result.URL)
	return result
}

// indexText chunks the text of one file and indexes it under the file name.
func (s *IngestService) indexText(ctx context.Context, name, text, url string) (int, error) {
	doc := &domain.Document{
		ID:       name,
		Source:   name,
		Filename: filepath.Base(filepath.FromSlash(name)),
		FileType: fileType(name),
		URL:      url,
		Content:  text,
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("chunk %s: %w", name, err)
	}
	return s.indexer.Index(ctx, s.collection, chunks)
}

// ImportCMS indexes every record of the batch in one embedding call.
// Point identities run over (source, ordinal within that source in the batch),
// so untitled records sharing the "CMS" source never overwrite each other.
func (s *IngestService) ImportCMS(ctx context.Context, batch domain.CMSImport) (int, error) {
	collection := batch.Collection
	if collection == "" {
		collection = s.collection
	}

	logger.Section("CMS Import")

	var all []domain.Chunk
	ordinals := make(map[string]int)
	for _, rec := range batch.Records {
		doc := cmsDocument(rec)

		chunks, err := s.pipeline.Process(ctx, doc)
		if err != nil {
			return 0, fmt.Errorf("chunk record %s: %w", doc.ID, err)
		}
		for i := range chunks {
			chunks[i].ID = domain.PointID(doc.Source, ordinals[doc.Source])
			ordinals[doc.Source]++
		}
		all = append(all, chunks...)
	}

	if len(all) == 0 {
		return 0, domain.NewValidationError("records", "no data to import")
	}

	n, err := s.indexer.Index(ctx, collection, all)
	if err != nil {
		return 0, err
	}
	logger.Info("Imported %d records as %d passages into %s", len(batch.Records), n, collection)
	return n, nil
}

// cmsDocument maps a CMS record to a document. The text is the title
// and body joined by an em dash.
func cmsDocument(rec domain.CMSRecord) *domain.Document {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = uuid.NewString()
	}
	source := rec.Title
	if strings.TrimSpace(source) == "" {
		source = domain.DefaultCMSSource
	}
	ft := rec.FileType
	if ft == "" {
		ft = domain.DefaultCMSFileType
	}

	text := rec.Body
	if rec.Title != "" {
		text = rec.Title + " — " + rec.Body
	}

	return &domain.Document{
		ID:       id,
		Source:   source,
		FileType: ft,
		URL:      rec.URL,
		Title:    rec.Title,
		Content:  text,
	}
}

// IngestPath indexes a single file, or every visible regular file under a
// directory. Files under a directory are named by their path relative to it.
func (s *IngestService) IngestPath(ctx context.Context, path string) (*domain.IngestReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	logger.Section("Ingest " + path)
	report := &domain.IngestReport{}

	if !info.IsDir() {
		report.Files = append(report.Files, s.ingestFile(ctx, path, filepath.Base(path)))
		report.Indexed = report.Files[0].Indexed
		return report, nil
	}

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := relativeName(path, p)
		if err != nil {
			rel = d.Name()
		}
		result := s.ingestFile(ctx, p, rel)
		report.Files = append(report.Files, result)
		report.Indexed += result.Indexed
		return nil
	})

	return report, walkErr
}

// IngestFile indexes the regular file at path, naming it relative to root.
// A path outside root is a ValidationError.
func (s *IngestService) IngestFile(ctx context.Context, root, path string) (*domain.IngestReport, error) {
	name, err := relativeName(root, path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, domain.NewValidationError("path", path+" is not a regular file")
	}

	result := s.ingestFile(ctx, path, name)
	return &domain.IngestReport{Files: []domain.FileResult{result}, Indexed: result.Indexed}, nil
}

// relativeName is path relative to root in slash form.
func relativeName(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.NewValidationError("path", fmt.Sprintf("%s is not under %s", path, root))
	}
	return filepath.ToSlash(rel), nil
}

func (s *IngestService) ingestFile(ctx context.Context, path, name string) domain.FileResult {
	result := domain.FileResult{Filename: name}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}

	text, err := s.extractor.Extract(ctx, name, data)
	if err != nil {
		result.Err = err
	} else {
		result.Indexed, result.Err = s.indexText(ctx, name, text, "")
	}

	if result.Err != nil {
		logger.Warn("Ingest %s failed: %v", name, result.Err)
	} else {
		logger.Info("Ingest %s: %d passages", name, result.Indexed)
	}
	return result
}

// SanitizeFilename reduces a client-supplied name to its base name.
// Returns "" for names that cannot be stored.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	return base
}

// fileType is the lowercased extension of name, or "text" when it has none.
func fileType(name string) string {
	if ext := domain.FileExtension(name); ext != "" {
		return ext
	}
	return "text"
}

// IsClientError reports whether err was caused by bad input rather than
// a failing dependency.
func IsClientError(err error) bool {
	var pe *domain.ParseError
	return errors.Is(err, domain.ErrInvalidInput) || errors.As(err, &pe)
}
