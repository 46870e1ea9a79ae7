package driving

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// IngestService turns files and records into indexed passages.
type IngestService interface {
	// UploadFiles indexes each file independently. A failing file is
	// reported in its FileResult and never aborts the rest of the batch.
	UploadFiles(ctx context.Context, files []domain.UploadFile) (*domain.IngestReport, error)

	// ImportCMS indexes structured records and returns the passage count.
	// An import that yields no passages is a ValidationError.
	ImportCMS(ctx context.Context, batch domain.CMSImport) (int, error)

	// IngestPath indexes a file, or every visible file under a directory.
	IngestPath(ctx context.Context, path string) (*domain.IngestReport, error)

	// IngestFile indexes one file under root, named by its path relative to
	// root exactly as IngestPath(root) names it, so both overwrite the same
	// passages.
	IngestFile(ctx context.Context, root, path string) (*domain.IngestReport, error)
}
