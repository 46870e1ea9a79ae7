package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

func newService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(Config{BaseURL: srv.URL + "/", Model: "all-minilm"})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	svc, err := NewEmbeddingService(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())

	_, err = NewEmbeddingService(Config{Model: "unknown-model"})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestEmbedBatch(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)

		vectors := make([][]float32, len(req.Input))
		for i := range req.Input {
			vectors[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: vectors})
	})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vectors)

	v, err := svc.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, v)

	empty, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "model not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"model \"all-minilm\" not found"}`))
			},
			want: "not found",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: "boom",
		},
		{
			name: "short response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"embeddings":[]}`))
			},
			want: "0 embeddings for 1 inputs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.handler)
			_, err := svc.Embed(context.Background(), "x")
			assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPing(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))

	down := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.ErrorIs(t, down.Ping(context.Background()), domain.ErrProviderUnavailable)
}
