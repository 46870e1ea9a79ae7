package driving

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// HealthStatus is reported by CollectionService.Health.
type HealthStatus struct {
	Status         string `json:"status"`
	EmbeddingModel string `json:"embedding_model"`
	Collection     string `json:"collection"`
}

// CollectionService manages the lifecycle of the active collection.
type CollectionService interface {
	// Health ensures the collection exists and reports the embedding model.
	Health(ctx context.Context) (*HealthStatus, error)

	// Reset drops the collection and recreates it empty.
	Reset(ctx context.Context) error

	// Stats describes the collection.
	Stats(ctx context.Context) (*domain.CollectionInfo, error)
}
