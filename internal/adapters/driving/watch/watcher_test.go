package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/services"
	"github.com/custodia-labs/ragline/internal/normalisers"
	"github.com/custodia-labs/ragline/internal/postprocessors"
	"github.com/custodia-labs/ragline/internal/postprocessors/chunker"
)

// recordingIngest records the paths it is asked to ingest.
type recordingIngest struct {
	mu    sync.Mutex
	paths []string
	roots []string
	err   error
}

func (r *recordingIngest) UploadFiles(context.Context, []domain.UploadFile) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (r *recordingIngest) ImportCMS(context.Context, domain.CMSImport) (int, error) {
	return 0, nil
}

func (r *recordingIngest) IngestPath(_ context.Context, path string) (*domain.IngestReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	if r.err != nil {
		return nil, r.err
	}
	return &domain.IngestReport{
		Files:   []domain.FileResult{{Filename: filepath.Base(path), Indexed: 1}},
		Indexed: 1,
	}, nil
}

func (r *recordingIngest) IngestFile(ctx context.Context, root, path string) (*domain.IngestReport, error) {
	r.mu.Lock()
	r.roots = append(r.roots, root)
	r.mu.Unlock()
	return r.IngestPath(ctx, path)
}

func (r *recordingIngest) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, &recordingIngest{})

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"create", filepath.Join(dir, "a.txt"), fsnotify.Create, true},
		{"write", filepath.Join(dir, "a.txt"), fsnotify.Write, true},
		{"write and chmod", filepath.Join(dir, "a.txt"), fsnotify.Write | fsnotify.Chmod, true},
		{"chmod", filepath.Join(dir, "a.txt"), fsnotify.Chmod, false},
		{"remove", filepath.Join(dir, "a.txt"), fsnotify.Remove, false},
		{"rename", filepath.Join(dir, "a.txt"), fsnotify.Rename, false},
		{"hidden file", filepath.Join(dir, ".a.txt"), fsnotify.Create, false},
		{"hidden dir", filepath.Join(dir, ".git", "HEAD"), fsnotify.Write, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := w.relevant(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestDue_Debounces(t *testing.T) {
	w := New(t.TempDir(), &recordingIngest{}, WithDebounce(time.Second))
	start := time.Now()

	w.enqueue("b.txt", start)
	w.enqueue("a.txt", start)
	w.enqueue("c.txt", start.Add(900*time.Millisecond))

	assert.Empty(t, w.due(start.Add(500*time.Millisecond)))
	assert.Equal(t, []string{"a.txt", "b.txt"}, w.due(start.Add(time.Second)))
	assert.Equal(t, []string{"c.txt"}, w.due(start.Add(2*time.Second)))
	assert.Empty(t, w.due(start.Add(3*time.Second)))
}

func TestFlush_ReportsResults(t *testing.T) {
	ingest := &recordingIngest{}
	var got []int
	w := New(t.TempDir(), ingest, WithDebounce(0), WithOnIngest(func(_ string, n int, err error) {
		assert.NoError(t, err)
		got = append(got, n)
	}))

	w.enqueue("a.txt", time.Now())
	w.flush(context.Background(), time.Now())

	assert.Equal(t, []string{"a.txt"}, ingest.seen())
	assert.Equal(t, []string{w.dir}, ingest.roots)
	assert.Equal(t, []int{1}, got)
}

func TestRun_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	err := New(file, &recordingIngest{}).Run(context.Background())
	assert.ErrorContains(t, err, "not a directory")

	err = New(filepath.Join(t.TempDir(), "missing"), &recordingIngest{}).Run(context.Background())
	assert.Error(t, err)
}

func TestRun_IngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngest{}
	w := New(dir, ingest, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secret"), []byte("x"), 0600))

	assert.Eventually(t, func() bool {
		for _, p := range ingest.seen() {
			if p == target {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	for _, p := range ingest.seen() {
		assert.NotContains(t, p, ".secret")
	}
}

func TestFlush_ReingestOverwritesInitialSync(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "notes", "a.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("quarterly planning notes"), 0o600))

	ctx := context.Background()
	store := memory.NewVectorStore()
	embedder := local.NewEmbeddingService(16)
	ingest := services.NewIngestService(
		services.NewExtractor(normalisers.NewDefaultRegistry()),
		postprocessors.NewPipeline(chunker.New()),
		services.NewIndexer(embedder, store),
		nil,
		"docs",
	)

	_, err := ingest.IngestPath(ctx, dir)
	require.NoError(t, err)

	w := New(dir, ingest, WithDebounce(0))
	w.enqueue(target, time.Now())
	w.flush(ctx, time.Now())

	count, err := store.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
