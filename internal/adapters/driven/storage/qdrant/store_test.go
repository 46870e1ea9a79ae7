package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

type fakePoint struct {
	vector  []float32
	payload map[string]any
}

type fakeCollection struct {
	size   int
	points map[string]fakePoint
}

// fakeQdrant implements the subset of the Qdrant REST API the store uses.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]*fakeCollection
	apiKeys     []string
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: make(map[string]*fakeCollection)}
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok"})
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.collections[r.PathValue("name")]
		if !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		writeResult(w, map[string]any{
			"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": c.size, "distance": "Cosine"}}},
		})
	})

	mux.HandleFunc("PUT /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Vectors.Distance != "Cosine" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.collections[r.PathValue("name")]; ok {
			http.Error(w, "already exists", http.StatusConflict)
			return
		}
		f.collections[r.PathValue("name")] = &fakeCollection{size: body.Vectors.Size, points: map[string]fakePoint{}}
		writeResult(w, true)
	})

	mux.HandleFunc("DELETE /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.collections[r.PathValue("name")]; !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		delete(f.collections, r.PathValue("name"))
		writeResult(w, true)
	})

	mux.HandleFunc("PUT /collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		c, ok := f.collections[r.PathValue("name")]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, p := range body.Points {
			if len(p.Vector) != c.size {
				http.Error(w, "wrong vector dimension", http.StatusBadRequest)
				return
			}
		}
		for _, p := range body.Points {
			c.points[p.ID] = fakePoint{vector: p.Vector, payload: p.Payload}
		}
		writeResult(w, map[string]any{"status": "completed"})
	})

	mux.HandleFunc("POST /collections/{name}/points/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.collections[r.PathValue("name")]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var body struct {
			Vector []float32 `json:"vector"`
			Limit  int       `json:"limit"`
			Filter *struct {
				Must []struct {
					Key   string `json:"key"`
					Match struct {
						Value any `json:"value"`
					} `json:"match"`
				} `json:"must"`
			} `json:"filter"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Vector) != c.size {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		filter := map[string]any{}
		if body.Filter != nil {
			for _, m := range body.Filter.Must {
				filter[m.Key] = m.Match.Value
			}
		}

		var hits []domain.Hit
		for id, p := range c.points {
			if !vecmath.Matches(p.payload, filter) {
				continue
			}
			hits = append(hits, domain.Hit{ID: id, Metadata: p.payload, Score: vecmath.Cosine(body.Vector, p.vector)})
		}
		hits = vecmath.TopK(hits, body.Limit)

		result := make([]map[string]any, 0, len(hits))
		for _, h := range hits {
			result = append(result, map[string]any{"id": h.ID, "score": h.Score, "payload": h.Metadata})
		}
		writeResult(w, result)
	})

	mux.HandleFunc("POST /collections/{name}/points/count", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.collections[r.PathValue("name")]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeResult(w, map[string]any{"count": len(c.points)})
	})

	return mux
}

func setupTestStore(t *testing.T) (*Store, *fakeQdrant) {
	t.Helper()
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	store, err := New(Config{URL: srv.URL + "/", APIKey: "secret"})
	require.NoError(t, err)
	return store, fake
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) driven.VectorStore {
		store, _ := setupTestStore(t)
		return store
	})
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{URL: "  "})

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "vector.url", cfgErr.Key)
}

func TestStore_SendsAPIKey(t *testing.T) {
	store, fake := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", 2, domain.DistanceCosine))
	require.NoError(t, store.Upsert(ctx, "docs", []domain.VectorRecord{{
		ID: domain.PointID("a.txt", 0), Vector: []float32{1, 0}, Payload: map[string]any{domain.MetaText: "x"},
	}}))

	require.Len(t, fake.apiKeys, 1)
	assert.Equal(t, "secret", fake.apiKeys[0])
}

func TestStore_MissingCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Search(ctx, "missing", []float32{1, 0}, 3, nil)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	err = store.Upsert(ctx, "missing", []domain.VectorRecord{{ID: "x", Vector: []float32{1, 0}}})
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	_, err = store.Count(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestStore_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store, err := New(Config{URL: srv.URL})
	require.NoError(t, err)

	err = store.EnsureCollection(context.Background(), "docs", 3, domain.DistanceCosine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "boom")
}

func TestBuildFilter(t *testing.T) {
	assert.Nil(t, buildFilter(nil))

	f := buildFilter(map[string]any{domain.MetaSource: "a.txt"})
	must, ok := f["must"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, must, 1)
	assert.Equal(t, domain.MetaSource, must[0]["key"])
	assert.Equal(t, map[string]any{"value": "a.txt"}, must[0]["match"])
}
