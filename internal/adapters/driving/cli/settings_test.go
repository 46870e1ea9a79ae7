package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

func TestConfigCmd_Path(t *testing.T) {
	dir := setupTestServices(t)

	out, err := execute(t, "", "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "ragline.toml"))
}

func TestConfigCmd_SetGetList(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "defaults apply")

	_, err = execute(t, "", "config", "set", "chunking.max_chars", "800")
	require.NoError(t, err)
	_, err = execute(t, "", "config", "set", "llm.api_key", "sk-1234567890abcdef")
	require.NoError(t, err)

	out, err = execute(t, "", "config", "get", "chunking.max_chars")
	require.NoError(t, err)
	assert.Contains(t, out, "800")

	out, err = execute(t, "", "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "chunking.max_chars = 800")
	assert.Contains(t, out, "llm.api_key = sk-1...cdef")
	assert.NotContains(t, out, "1234567890")

	_, err = execute(t, "", "config", "get", "missing.key")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigCmd_Mode(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "config", "mode", "extractive")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer mode set to: extractive")

	_, err = execute(t, "", "config", "mode", "generative")
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = execute(t, "", "config", "mode", "poetic")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigCmd_Backend(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "config", "backend", "qdrant")
	require.NoError(t, err)
	assert.Contains(t, out, "Vector backend set to: qdrant")
	assert.Contains(t, out, "vector.url")

	_, err = execute(t, "", "config", "backend", "redis")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigCmd_Embedding(t *testing.T) {
	setupTestServices(t)

	// Provider 4 is local, default model.
	out, err := execute(t, "4\n\n", "config", "embedding")
	require.NoError(t, err)
	assert.Contains(t, out, "Validating configuration... OK")
	assert.Contains(t, out, "hashing-384")

	out, err = execute(t, "", "config", "get", "embedding.provider")
	require.NoError(t, err)
	assert.Contains(t, out, "local")
}

func TestConfigCmd_LLM(t *testing.T) {
	setupTestServices(t)

	t.Run("api key required", func(t *testing.T) {
		// Provider 2 is OpenAI.
		_, err := execute(t, "2\n\n\n", "config", "llm")
		assert.ErrorContains(t, err, "API key is required")
	})

	t.Run("configured then generative mode allowed", func(t *testing.T) {
		out, err := execute(t, "2\ngpt-4o\nsk-test-key-123456\n", "config", "llm")
		require.NoError(t, err)
		assert.Contains(t, out, "LLM provider configured")
		assert.Contains(t, out, "gpt-4o")

		_, err = execute(t, "", "config", "mode", "generative")
		assert.NoError(t, err)
	})
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Short key", "abc123", "****"},
		{"Exactly 8 chars", "12345678", "****"},
		{"Long key", "sk-1234567890abcdef", "sk-1...cdef"},
		{"Empty key", "", "****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{"Empty uses default", "", 4, 1, 1},
		{"Valid", "3", 4, 1, 3},
		{"Too large", "9", 4, 1, 1},
		{"Zero", "0", 4, 2, 2},
		{"Not a number", "abc", 4, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"800", 800},
		{"true", true},
		{"false", false},
		{"a, b,c", []string{"a", "b", "c"}},
		{"sqlite", "sqlite"},
		{"1.5", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.input))
		})
	}
}
