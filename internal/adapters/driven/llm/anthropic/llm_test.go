package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

func newService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewLLMService(Config{APIKey: "sk-ant", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestGenerate(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		assert.Empty(t, req.System)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello"},{"type":"text","text":" there"}]}`))
	})

	out, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", out)
}

func TestGenerate_SystemField(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cite only the context", req.System)
		assert.Equal(t, 10, req.MaxTokens)
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, "user", req.Messages[0].Role)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	})

	out, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{System: "cite only the context", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"overloaded", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(529)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
		}, "overloaded_error"},
		{"no text", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		}, "no text content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.handler)
			_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})
			assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPing(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrProviderUnavailable)
}
