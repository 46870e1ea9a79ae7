package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultFilename is the database file created inside the data directory.
const DefaultFilename = "vectors.db"

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified path.
// A directory path gets DefaultFilename appended. An empty path
// defaults to ~/.ragline/data/vectors.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".ragline", "data")
	}
	if info, err := os.Stat(path); (err == nil && info.IsDir()) || filepath.Ext(path) == "" {
		path = filepath.Join(path, DefaultFilename)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_vectors.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// EnsureCollection creates the collection if absent.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int, metric string) error {
	if metric != domain.DistanceCosine {
		return domain.NewConfigurationError("vector.metric", fmt.Sprintf("unsupported metric %q", metric))
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (name, dimension, metric) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING",
		name, dimension, metric)
	if err != nil {
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
	err := s.db.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection %s: %w", name, err)
	}
	return dim, nil
}

// Upsert writes records in one transaction, replacing any with the same ID.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (collection, id, vector, payload, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			vector = excluded.vector,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s has %d dimensions, collection %s has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), collection, dim)
		}
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("marshalling payload of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, r.ID, vecmath.Encode(r.Vector), string(payload)); err != nil {
			return fmt.Errorf("upserting %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Search scans the collection and returns the best topK matches.
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

	rows, err := s.db.QueryContext(ctx, "SELECT id, vector, payload FROM vectors WHERE collection = ?", collection)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []domain.Hit
	for rows.Next() {
		var (
			id      string
			blob    []byte
			payload string
		)
		if err := rows.Scan(&id, &blob, &payload); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		var fields map[string]any
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("decoding payload of %s: %w", id, err)
		}
		if !vecmath.Matches(fields, filter) {
			continue
		}

		vec, err := vecmath.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding vector of %s: %w", id, err)
		}

		text, meta := vecmath.SplitPayload(fields)
		hits = append(hits, domain.Hit{ID: id, Text: text, Metadata: meta, Score: vecmath.Cosine(vector, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if hits == nil {
		return []domain.Hit{}, nil
	}
	return vecmath.TopK(hits, topK), nil
}

// DeleteCollection drops the collection and its vectors.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}

// Count returns the number of vectors in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE collection = ?", collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}
