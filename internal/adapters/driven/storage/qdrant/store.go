// Package qdrant provides a driven.VectorStore backed by a Qdrant server's REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// DefaultTimeout bounds every request to the server.
const DefaultTimeout = 15 * time.Second

// Ensure Store implements driven.VectorStore at compile time.
var _ driven.VectorStore = (*Store)(nil)

// Config holds Qdrant connection settings.
type Config struct {
	// URL is the server base URL, e.g. http://localhost:6333.
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Timeout overrides DefaultTimeout.
	Timeout time.Duration

	// HTTPClient replaces the default client. Useful for testing.
	HTTPClient *http.Client
}

// Store is a minimal REST client to Qdrant.
// Collections are created with cosine distance.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a Store. The URL is required.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, domain.NewConfigurationError("vector.url", "is required for the qdrant backend")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Store{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}, nil
}

// Close is a no-op; the HTTP client holds no exclusive resources.
func (s *Store) Close() error {
	return nil
}

// apiError is a non-2xx response.
type apiError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("qdrant %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (s *Store) collectionPath(name string, rest ...string) string {
	return "/collections/" + url.PathEscape(name) + strings.Join(rest, "")
}

// do sends body as JSON and decodes the "result" field of the response into out.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}

	envelope := struct {
		Result json.RawMessage `json:"result"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding qdrant response: %w", err)
	}
	return json.Unmarshal(envelope.Result, out)
}

func isStatus(err error, status int) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// dimension reads the configured vector size of a collection.
func (s *Store) dimension(ctx context.Context, name string) (int, error) {
	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionPath(name), nil, &info)
	if isStatus(err, http.StatusNotFound) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return info.Config.Params.Vectors.Size, nil
}

// EnsureCollection creates the collection when it does not exist and checks
// the dimension of an existing one.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int, metric string) error {
	if metric != domain.DistanceCosine {
		return domain.NewConfigurationError("vector.metric", fmt.Sprintf("unsupported metric %q", metric))
	}

	existing, err := s.dimension(ctx, name)
	switch {
	case err == nil:
		if existing != dimension {
			return domain.NewConfigurationError("embedding.dimensions",
				fmt.Sprintf("collection %s has dimension %d, embedder produces %d", name, existing, dimension))
		}
		return nil
	case !errors.Is(err, domain.ErrCollectionNotFound):
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	err = s.do(ctx, http.MethodPut, s.collectionPath(name), body, nil)
	if isStatus(err, http.StatusConflict) {
		// Created concurrently; re-check its shape.
		return s.EnsureCollection(ctx, name, dimension, metric)
	}
	return err
}

type point struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes all records in one request and waits for them to be applied.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	}

	err := s.do(ctx, http.MethodPut, s.collectionPath(collection, "/points?wait=true"),
		map[string]any{"points": points}, nil)
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collection)
	}
	return err
}

// buildFilter turns equality pairs into a Qdrant "must" filter.
func buildFilter(filter map[string]any) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	must := make([]map[string]any, 0, len(filter))
	for k, v := range filter {
		must = append(must, map[string]any{
			"key":   k,
			"match": map[string]any{"value": v},
		})
	}
	return map[string]any{"must": must}
}

// Search runs a nearest-neighbour query with payloads.
func (s *Store) Search(
	ctx context.Context, collection string, vector []float32, topK int, filter map[string]any,
) ([]domain.Hit, error) {
	if topK < 1 {
		topK = 1
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		req["filter"] = f
	}

	var result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionPath(collection, "/points/search"), req, &result)
	if isStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collection)
	}
	if err != nil {
		return nil, err
	}

	hits := make([]domain.Hit, 0, len(result))
	for _, r := range result {
		text, meta := vecmath.SplitPayload(r.Payload)
		hits = append(hits, domain.Hit{ID: fmt.Sprint(r.ID), Text: text, Metadata: meta, Score: r.Score})
	}
	return hits, nil
}

// DeleteCollection drops the collection. A missing collection is not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, s.collectionPath(name), nil, nil)
	if isStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionPath(collection, "/points/count"),
		map[string]any{"exact": true}, &result)
	if isStatus(err, http.StatusNotFound) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collection)
	}
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}
