// Package watch keeps a directory indexed by ingesting files as they are
// created or written.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is ingested.
// Editors and copy tools often write a file in several steps.
const DefaultDebounce = 500 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithOnIngest registers a callback run after each ingest attempt.
func WithOnIngest(fn func(path string, indexed int, err error)) Option {
	return func(w *Watcher) { w.onIngest = fn }
}

// Watcher ingests changed files under a directory. Files are named relative
// to the directory, the same names an initial IngestPath(dir) gives them.
type Watcher struct {
	dir      string
	ingest   driving.IngestService
	debounce time.Duration
	onIngest func(path string, indexed int, err error)

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		ingest:   ingest,
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}
	logger.L().Info("watching directory", zap.String("dir", w.dir))

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.L().Warn("watch error", zap.Error(err))
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) tick() time.Duration {
	if t := w.debounce / 2; t > 0 {
		return t
	}
	return 10 * time.Millisecond
}

// addTree watches root and every visible directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleEvent queues created or written files. New directories are watched
// and their existing files queued.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event) {
	path, ok := w.relevant(event)
	if !ok {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := w.addTree(fw, path); err != nil {
			logger.L().Warn("watch new directory failed", zap.String("dir", path), zap.Error(err))
			return
		}
		_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() && !isHidden(p) {
				w.enqueue(p, time.Now())
			}
			return nil
		})
		return
	}
	if info.Mode().IsRegular() {
		w.enqueue(path, time.Now())
	}
}

// relevant reports whether event is a create or write of a visible path.
// Removals and renames are ignored: the index keeps passages of deleted
// files until the collection is reset.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil || isHidden(rel) {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) enqueue(path string, at time.Time) {
	w.mu.Lock()
	w.pending[path] = at
	w.mu.Unlock()
}

// due removes and returns, sorted, the paths quiet since before now-debounce.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for _, path := range w.due(now) {
		report, err := w.ingest.IngestFile(ctx, w.dir, path)
		indexed := 0
		if err == nil && report != nil {
			indexed = report.Indexed
			if failed := report.Failed(); len(failed) > 0 {
				err = failed[0].Err
			}
		}

		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			logger.L().Warn("ingest failed", zap.String("path", path), zap.Error(err))
		default:
			logger.L().Info("ingested", zap.String("path", path), zap.Int("passages", indexed))
		}
		if w.onIngest != nil {
			w.onIngest(path, indexed, err)
		}
	}
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" && part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
