package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/local"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.AnswersTotal.WithLabelValues("extractive").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.AnswersTotal.WithLabelValues("extractive")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AnswersTotal.WithLabelValues("extractive")))
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodPost, "/chat", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/chat", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/chat", http.StatusBadRequest, time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/chat", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/chat", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "4xx")))
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{400, "4xx"},
		{502, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusClass(tt.status))
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.PassagesIndexed.WithLabelValues("cms").Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ragline_passages_indexed_total{kind="cms"} 3`)
	assert.Contains(t, string(body), "go_goroutines")
}

type failingEmbedder struct {
	*local.EmbeddingService
}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("down")
}

func TestInstrumentEmbedding(t *testing.T) {
	m := New()
	svc := m.InstrumentEmbedding(local.NewEmbeddingService(16))
	model := svc.ModelName()

	_, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmbeddingRequests.WithLabelValues(model, "ok")))
	assert.Equal(t, 16, svc.Dimensions())

	bad := m.InstrumentEmbedding(failingEmbedder{local.NewEmbeddingService(16)})
	_, err = bad.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingRequests.WithLabelValues(bad.ModelName(), "error")))
}
