package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, name string) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	return store
}

func TestNewConfigStore(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "ragline.toml")
		store, err := NewConfigStore(path)
		require.NoError(t, err)
		assert.Equal(t, path, store.Path())
		assert.Empty(t, store.Keys())
	})

	t.Run("default filename", func(t *testing.T) {
		t.Chdir(t.TempDir())
		store, err := NewConfigStore("")
		require.NoError(t, err)
		assert.Equal(t, DefaultFilename, store.Path())
	})

	t.Run("uncreatable directory", func(t *testing.T) {
		_, err := NewConfigStore("/dev/null/cannot/create/ragline.toml")
		assert.Error(t, err)
	})

	t.Run("corrupted file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ragline.toml")
		require.NoError(t, os.WriteFile(path, []byte("this is not valid TOML {{{[["), 0600))
		_, err := NewConfigStore(path)
		assert.Error(t, err)
	})
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t, "ragline.toml")

	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("embedding.dimensions", 1536))
	require.NoError(t, store.Set("server.gzip", true))
	require.NoError(t, store.Set("embedding.fallback", []string{"gemini", "local"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("embedding.provider"), "openai"},
		{"int", store.GetInt("embedding.dimensions"), 1536},
		{"bool", store.GetBool("server.gzip"), true},
		{"slice", store.GetStringSlice("embedding.fallback"), []string{"gemini", "local"}},
		{"missing string", store.GetString("nope"), ""},
		{"missing int", store.GetInt("nope"), 0},
		{"missing bool", store.GetBool("nope"), false},
		{"wrong type", store.GetInt("embedding.provider"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.Nil(t, store.GetStringSlice("nope"))
}

func TestConfigStore_WritesNestedSections(t *testing.T) {
	store := newTestStore(t, "ragline.toml")

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("vector.backend", "sqlite"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.Contains(t, string(data), "[vector]")
	assert.NotContains(t, string(data), "'embedding.provider'")
}

func TestConfigStore_Persistence(t *testing.T) {
	for _, name := range []string{"ragline.toml", "ragline.yaml"} {
		t.Run(name, func(t *testing.T) {
			store := newTestStore(t, name)
			require.NoError(t, store.Set("llm.provider", "anthropic"))
			require.NoError(t, store.Set("chunking.max_chars", 800))
			require.NoError(t, store.Set("server.cors_origins", []string{"https://a.example"}))

			reopened, err := NewConfigStore(store.Path())
			require.NoError(t, err)

			assert.Equal(t, "anthropic", reopened.GetString("llm.provider"))
			assert.Equal(t, 800, reopened.GetInt("chunking.max_chars"))
			assert.Equal(t, []string{"https://a.example"}, reopened.GetStringSlice("server.cors_origins"))
			assert.Equal(t, []string{"chunking.max_chars", "llm.provider", "server.cors_origins"}, reopened.Keys())
		})
	}
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragline.toml")
	content := `
[vector]
backend = "qdrant"
url = "http://localhost:6333"

[embedding]
fallback = ["gemini", "local"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.Equal(t, "qdrant", store.GetString("vector.backend"))
	assert.Equal(t, "http://localhost:6333", store.GetString("vector.url"))
	assert.Equal(t, []string{"gemini", "local"}, store.GetStringSlice("embedding.fallback"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t, "ragline.toml")
	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Set_Errors(t *testing.T) {
	t.Run("conflicting keys roll back", func(t *testing.T) {
		store := newTestStore(t, "ragline.toml")
		require.NoError(t, store.Set("vector", "sqlite"))

		assert.Error(t, store.Set("vector.backend", "sqlite"))
		_, ok := store.Get("vector.backend")
		assert.False(t, ok)
	})

	t.Run("unmarshallable value", func(t *testing.T) {
		store := newTestStore(t, "ragline.toml")
		assert.Error(t, store.Set("channel", make(chan int)))
		assert.Empty(t, store.Keys())
	})

	t.Run("write failure", func(t *testing.T) {
		store := newTestStore(t, "ragline.toml")
		require.NoError(t, store.Set("a.b", "c"))

		require.NoError(t, os.Remove(store.Path()))
		require.NoError(t, os.Mkdir(store.Path(), 0700))

		assert.Error(t, store.Set("a.d", "e"))
	})
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t, "ragline.toml")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("llm.model", "m")
		}()
		go func() {
			defer wg.Done()
			_ = store.GetString("llm.model")
		}()
	}
	wg.Wait()

	assert.Equal(t, "m", store.GetString("llm.model"))
}

func TestUnflattenMap(t *testing.T) {
	nested, err := unflattenMap(map[string]any{"a.b.c": 1, "a.d": 2, "e": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}, "d": 2},
		"e": 3,
	}, nested)

	assert.Equal(t, map[string]any{"a.b.c": 1, "a.d": 2, "e": 3}, flattenMap(nested, ""))
}
