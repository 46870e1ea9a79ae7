package driving

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// ChatService answers natural-language questions over the indexed passages.
type ChatService interface {
	// Ask retrieves the best hits for the query and composes an answer.
	// An empty result is answered with domain.NoDataMessage, not an error.
	Ask(ctx context.Context, query domain.Query) (*domain.Answer, error)

	// AskWithMode is Ask with an explicit answer mode ("extractive" or
	// "generative"). An empty mode uses the configured default; an unknown
	// one is a ValidationError.
	AskWithMode(ctx context.Context, query domain.Query, mode string) (*domain.Answer, error)

	// Search returns the ranked hits without composing an answer.
	Search(ctx context.Context, query domain.Query) ([]domain.Hit, error)
}
