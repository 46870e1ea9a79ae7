// Package postgres provides a PostgreSQL driven.VectorStore on the pgvector extension.
// It uses pgx/v5 for connection pooling and JSONB payloads for equality filters.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Store is a pgvector-backed VectorStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements driven.VectorStore at compile time.
var _ driven.VectorStore = (*Store)(nil)

// New connects to PostgreSQL and optionally applies migrations.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// EnsureCollection registers the collection if absent.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int, metric string) error {
	if metric != domain.DistanceCosine {
		return domain.NewConfigurationError("vector.metric", fmt.Sprintf("unsupported metric %q", metric))
	}

	if _, err := s.pool.Exec(ctx,
		"INSERT INTO rag_collections (name, dimension, metric) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING",
		name, dimension, metric,
	); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	existing, err := s.dimension(ctx, name)
	if err != nil {
		return err
	}
	if existing != dimension {
		return domain.NewConfigurationError("embedding.dimensions",
			fmt.Sprintf("collection %s has dimension %d, embedder produces %d", name, existing, dimension))
	}
	return nil
}

func (s *Store) dimension(ctx context.Context, name string) (int, error) {
	var dim int
	err := s.pool.QueryRow(ctx, "SELECT dimension FROM rag_collections WHERE name = $1", name).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection %s: %w", name, err)
	}
	return dim, nil
}

// Upsert writes all records in one batch.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s has %d dimensions, collection %s has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), collection, dim)
		}
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("marshalling payload of %s: %w", r.ID, err)
		}
		batch.Queue(`
			INSERT INTO rag_vectors (collection, id, embedding, payload, updated_at)
			VALUES ($1, $2, $3::vector, $4::jsonb, now())
			ON CONFLICT (collection, id) DO UPDATE SET
				embedding = EXCLUDED.embedding,
				payload = EXCLUDED.payload,
				updated_at = EXCLUDED.updated_at`,
			collection, r.ID, pgvector.NewVector(r.Vector), string(payload))
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting into %s: %w", collection, err)
	}
	return nil
}

// Search orders by cosine distance and converts it back to similarity.
func (s *Store) Search(
	ctx context.Context, collection string, vector []float32, topK int, filter map[string]any,
) ([]domain.Hit, error) {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, len(vector), collection, dim)
	}
	if topK < 1 {
		topK = 1
	}

	if filter == nil {
		filter = map[string]any{}
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshalling filter: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, payload, 1 - (embedding <=> $2::vector) AS score
		FROM rag_vectors
		WHERE collection = $1 AND payload @> $3::jsonb
		ORDER BY embedding <=> $2::vector, id
		LIMIT $4`,
		collection, pgvector.NewVector(vector), string(filterJSON), topK)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", collection, err)
	}
	defer rows.Close()

	hits := []domain.Hit{}
	for rows.Next() {
		var (
			id      string
			payload []byte
			score   float64
		)
		if err := rows.Scan(&id, &payload, &score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		var fields map[string]any
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("decoding payload of %s: %w", id, err)
		}
		text, meta := vecmath.SplitPayload(fields)
		hits = append(hits, domain.Hit{ID: id, Text: text, Metadata: meta, Score: score})
	}
	return hits, rows.Err()
}

// DeleteCollection removes the collection; vectors cascade.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM rag_collections WHERE name = $1", name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}

// Count returns the number of vectors stored in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM rag_vectors WHERE collection = $1", collection,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}
