// Package postprocessors turns a normalised Document into the passages the
// indexer embeds.
//
// The chunker always runs first and creates the passages. Later stages
// filter or rewrite them. Stages are built by name from a Registry so the
// chain follows the [chunking] config section.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// ErrEmptyPipeline is returned when a config names no processors.
var ErrEmptyPipeline = errors.New("pipeline has no processors")

// Pipeline runs processors in order, feeding each the previous output.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline from processors, in execution order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// NewPipelineFromConfig builds the processors named in cfg, in order.
func NewPipelineFromConfig(r *Registry, cfg domain.PipelineConfig) (*Pipeline, error) {
	if len(cfg.Processors) == 0 {
		return nil, ErrEmptyPipeline
	}
	p := NewPipeline()
	for _, name := range cfg.Processors {
		processor, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, err
		}
		p.Add(processor)
	}
	return p, nil
}

// Add appends a processor.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors.
func (p *Pipeline) Len() int { return len(p.processors) }

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// Process runs doc through every processor. The first one receives nil
// passages. Processing stops early once the passage set is empty.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for i, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := len(chunks)
		out, err := processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
		chunks = out
		logger.L().Debug("post-processed document",
			zap.String("source", doc.Source),
			zap.String("processor", processor.Name()),
			zap.Int("in", before),
			zap.Int("out", len(chunks)))
		if i > 0 && len(chunks) == 0 {
			break
		}
	}
	return chunks, nil
}
