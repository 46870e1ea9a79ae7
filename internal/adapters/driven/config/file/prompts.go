package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// builtinPrompts seeds new prompt directories and backs every known name.
var builtinPrompts = map[string]string{
	driven.PromptAnswer: driven.DefaultAnswerPrompt,
}

const promptReadme = "# ragline prompts\n\n" +
	"Edit these files to change how generative answers are written.\n\n" +
	"- `answer.txt` answers from the retrieved passages. It must contain exactly two\n" +
	"  `%s` placeholders: the question first, then the context. A template without\n" +
	"  them is ignored and the built-in prompt is used.\n\n" +
	"Edits are picked up on the next question; no restart is needed.\n"

// promptEntry is a cached template and the file state it was read from.
type promptEntry struct {
	text    string
	modTime time.Time
	size    int64
}

// PromptStore reads templates from <dir>/<name>.txt.
//
// The directory and default files are created on first Load, not in the
// constructor. Each Load stats the file and rereads it when its
// modification time or size changed, so a running server follows edits.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]promptEntry
}

// NewPromptStore creates a store rooted at dir, or ~/.ragline/prompts when empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".ragline", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]promptEntry)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string { return s.dir }

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)
	builtin, known := builtinPrompts[name]

	text, err := s.read(name)
	if err == nil {
		return text, nil
	}
	if known {
		if !errors.Is(err, fs.ErrNotExist) || s.seedErr != nil {
			logger.L().Warn("using built-in prompt", zap.String("prompt", name), zap.Error(err))
		}
		return builtin, nil
	}
	return "", fmt.Errorf("load prompt %q: %w", name, err)
}

// read returns the cached text unless the file changed since it was cached.
func (s *PromptStore) read(name string) (string, error) {
	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		s.forget(name)
		return "", err
	}

	s.mu.Lock()
	entry, ok := s.cache[name]
	s.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	entry = promptEntry{
		text:    strings.TrimSpace(string(data)),
		modTime: info.ModTime(),
		size:    info.Size(),
	}

	s.mu.Lock()
	s.cache[name] = entry
	s.mu.Unlock()
	return entry.text, nil
}

func (s *PromptStore) forget(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
}

// seed creates the directory, the default templates and a README.
// Existing files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	files := map[string]string{"README.md": promptReadme}
	for name, text := range builtinPrompts {
		files[name+".txt"] = text
	}
	for name, content := range files {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", name, err)
			return
		}
	}
}
