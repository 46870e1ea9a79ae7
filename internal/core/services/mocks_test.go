package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/normalisers"
	"github.com/custodia-labs/ragline/internal/postprocessors"
	"github.com/custodia-labs/ragline/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// mockEmbeddingService returns a fixed vector for every text.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	dims      int
	// short drops the last vector of a batch when set.
	short bool

	mu      sync.Mutex
	batches int
	queries []string
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.queries = append(m.queries, text)
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	if m.short && len(result) > 0 {
		result = result[:len(result)-1]
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockVectorStore records search arguments and returns canned hits.
type mockVectorStore struct {
	hits      []domain.Hit
	searchErr error
	deleteErr error

	topK       int
	collection string
	filter     map[string]any
}

func (m *mockVectorStore) EnsureCollection(_ context.Context, _ string, _ int, _ string) error {
	return nil
}

func (m *mockVectorStore) Upsert(_ context.Context, _ string, _ []domain.VectorRecord) error {
	return nil
}

func (m *mockVectorStore) Search(
	_ context.Context, collection string, _ []float32, topK int, filter map[string]any,
) ([]domain.Hit, error) {
	m.topK, m.collection, m.filter = topK, collection, filter
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if topK < len(m.hits) {
		return m.hits[:topK], nil
	}
	return m.hits, nil
}

func (m *mockVectorStore) DeleteCollection(_ context.Context, _ string) error { return m.deleteErr }
func (m *mockVectorStore) Count(_ context.Context, _ string) (int, error)     { return len(m.hits), nil }
func (m *mockVectorStore) Close() error                                       { return nil }

// mockLLMService returns a canned response and captures the prompt.
type mockLLMService struct {
	response string
	err      error
	// block waits for the context to end before returning.
	block bool

	prompt string
	opts   driven.GenerateOptions
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompt, m.opts = prompt, opts
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

// mockFileStore keeps saved files in memory.
type mockFileStore struct {
	files   map[string][]byte
	saveErr error
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]byte)}
}

func (m *mockFileStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.files[name] = data
	return m.URL(name), nil
}

func (m *mockFileStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockFileStore) URL(name string) string {
	return "http://files.test/files/" + name
}

// --- Fixtures ---

const testCollection = "documents"

// stack is a fully wired set of services over the memory store and the
// hashing embedder.
type stack struct {
	store     *memory.VectorStore
	embedder  driven.EmbeddingService
	indexer   *Indexer
	retriever *Retriever
	ingest    *IngestService
	chat      *ChatService
	files     *mockFileStore
}

func newStack(chunkSize, overlap int) *stack {
	store := memory.NewVectorStore()
	embedder := local.NewEmbeddingService(0)
	indexer := NewIndexer(embedder, store)
	retriever := NewRetriever(embedder, store, testCollection)
	files := newMockFileStore()
	pipeline := postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(overlap)))

	return &stack{
		store:     store,
		embedder:  embedder,
		indexer:   indexer,
		retriever: retriever,
		ingest:    NewIngestService(NewExtractor(normalisers.NewDefaultRegistry()), pipeline, indexer, files, testCollection),
		chat:      NewChatService(retriever, domain.AnswerModeExtractive, NewExtractiveComposer()),
		files:     files,
	}
}

func hit(text string, meta map[string]any) domain.Hit {
	return domain.Hit{ID: "p", Text: text, Metadata: meta, Score: 0.9}
}

// mockConfigStore is a map-backed driven.ConfigStore.
type mockConfigStore struct {
	values map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.values[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	n, _ := m.values[key].(int)
	return n
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.values[key].(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.values[key].([]string)
	return s
}

func (m *mockConfigStore) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Path() string { return "mock.toml" }

// hookedStore wraps a real store and runs onDelete just before the
// collection is dropped.
type hookedStore struct {
	driven.VectorStore
	onDelete func()
}

func (h *hookedStore) DeleteCollection(ctx context.Context, name string) error {
	if h.onDelete != nil {
		h.onDelete()
	}
	return h.VectorStore.DeleteCollection(ctx, name)
}
