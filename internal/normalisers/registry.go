package normalisers

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/normalisers/csv"
	"github.com/custodia-labs/ragline/internal/normalisers/docx"
	"github.com/custodia-labs/ragline/internal/normalisers/markdown"
	"github.com/custodia-labs/ragline/internal/normalisers/pdf"
	"github.com/custodia-labs/ragline/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches documents to normalisers by extension.
// When several normalisers claim an extension the highest priority wins.
// Normalisers with no extensions act as fallbacks for everything else.
type Registry struct {
	mu          sync.RWMutex
	byExtension map[string][]driven.Normaliser
	fallbacks   []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExtension: make(map[string][]driven.Normaliser)}
}

// NewDefaultRegistry returns a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers the built-in normalisers.
func RegisterDefaults(r driven.NormaliserRegistry) {
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(csv.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exts := n.SupportedExtensions()
	if len(exts) == 0 {
		r.fallbacks = insertByPriority(r.fallbacks, n)
		return
	}
	for _, ext := range exts {
		r.byExtension[ext] = insertByPriority(r.byExtension[ext], n)
	}
}

// Normalise runs the best normaliser for the document's extension.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n := r.lookup(raw.Extension())
	if n == nil {
		return nil, domain.ErrUnsupportedType
	}
	return n.Normalise(ctx, raw)
}

// SupportedExtensions returns every extension with a dedicated normaliser, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) lookup(ext string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ns := r.byExtension[ext]; len(ns) > 0 {
		return ns[0]
	}
	if len(r.fallbacks) > 0 {
		return r.fallbacks[0]
	}
	return nil
}

// insertByPriority keeps the slice ordered by descending priority.
// Equal priorities keep registration order.
func insertByPriority(list []driven.Normaliser, n driven.Normaliser) []driven.Normaliser {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Priority() < n.Priority()
	})
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = n
	return list
}
