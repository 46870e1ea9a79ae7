package driven

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// VectorStore persists (id, vector, payload) records in named collections
// and runs similarity search over them.
//
// Implementations: Qdrant (REST), PostgreSQL with pgvector, SQLite, in-memory.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	// An existing collection with a different dimension is a configuration
	// error, never silently reused.
	EnsureCollection(ctx context.Context, name string, dimension int, metric string) error

	// Upsert writes records, replacing any record with the same ID.
	Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error

	// Search returns up to topK hits ordered by descending score.
	// Filter, when non-empty, keeps only payloads whose fields equal the given values.
	// A collection with no records yields an empty slice and no error.
	Search(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]domain.Hit, error)

	// DeleteCollection drops the collection and all its records.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Count returns the number of records, or ErrCollectionNotFound.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources.
	Close() error
}
