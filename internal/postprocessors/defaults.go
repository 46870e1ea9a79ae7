package postprocessors

import (
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/postprocessors/chunker"
	"github.com/custodia-labs/ragline/internal/postprocessors/dedupe"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register(domain.ProcessorChunker, buildChunker)
	r.Register(domain.ProcessorDedupe, func(map[string]any) (driven.PostProcessor, error) {
		return dedupe.New(), nil
	})
}

// buildChunker reads chunk_size and overlap; absent keys keep the chunker defaults.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size, ok := lookupInt(cfg, "chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := lookupInt(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...), nil
}

// lookupInt accepts the numeric shapes TOML, YAML and JSON decoders produce.
func lookupInt(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
