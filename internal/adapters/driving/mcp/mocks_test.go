package mcp

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer *domain.Answer
	hits   []domain.Hit
	err    error

	lastQuery domain.Query
	lastMode  string
}

func (m *mockChatService) Ask(ctx context.Context, q domain.Query) (*domain.Answer, error) {
	return m.AskWithMode(ctx, q, "")
}

func (m *mockChatService) AskWithMode(_ context.Context, q domain.Query, mode string) (*domain.Answer, error) {
	m.lastQuery = q
	m.lastMode = mode
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return &domain.Answer{Text: domain.NoDataMessage}, nil
	}
	return m.answer, nil
}

func (m *mockChatService) Search(_ context.Context, q domain.Query) ([]domain.Hit, error) {
	m.lastQuery = q
	return m.hits, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	indexed int
	err     error
	batch   domain.CMSImport
}

func (m *mockIngestService) UploadFiles(context.Context, []domain.UploadFile) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

func (m *mockIngestService) ImportCMS(_ context.Context, batch domain.CMSImport) (int, error) {
	m.batch = batch
	return m.indexed, m.err
}

func (m *mockIngestService) IngestFile(context.Context, string, string) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (m *mockIngestService) IngestPath(context.Context, string) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	stats     *domain.CollectionInfo
	healthErr error
	statsErr  error
}

func (m *mockCollectionService) Health(context.Context) (*driving.HealthStatus, error) {
	if m.healthErr != nil {
		return nil, m.healthErr
	}
	return &driving.HealthStatus{Status: "ok", EmbeddingModel: "hashing-384", Collection: "docs"}, nil
}

func (m *mockCollectionService) Reset(context.Context) error { return nil }

func (m *mockCollectionService) Stats(context.Context) (*domain.CollectionInfo, error) {
	return m.stats, m.statsErr
}
