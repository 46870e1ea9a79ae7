// Package group provides an ordered fallback over several embedding services.
package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure Group implements the interface.
var _ driven.EmbeddingService = (*Group)(nil)

// Entry is one provider of the chain.
type Entry struct {
	Name    string
	Service driven.EmbeddingService
}

// Group tries each entry in order until one succeeds.
// All entries produce vectors of the same size.
type Group struct {
	items []Entry
}

// New builds a fallback chain. Every entry must report the same
// Dimensions, otherwise a collection could receive mixed vectors.
func New(items []Entry) (*Group, error) {
	if len(items) == 0 {
		return nil, domain.NewConfigurationError("embedding.provider", "no embedding provider configured")
	}
	dim := items[0].Service.Dimensions()
	for _, item := range items[1:] {
		if d := item.Service.Dimensions(); d != dim {
			return nil, domain.NewConfigurationError("embedding.fallback",
				fmt.Sprintf("%s produces %d dimensions but %s produces %d", item.Name, d, items[0].Name, dim))
		}
	}
	return &Group{items: items}, nil
}

// Embed returns the first successful embedding.
func (g *Group) Embed(ctx context.Context, text string) ([]float32, error) {
	var errs []error
	for i, item := range g.items {
		res, err := item.Service.Embed(ctx, text)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
		logger.L().Warn("embedder failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	return nil, domain.NewProviderError("fallback", "embed", errors.Join(errs...))
}

// EmbedBatch returns the first provider's complete batch. A batch is never
// assembled from more than one provider.
func (g *Group) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var errs []error
	for i, item := range g.items {
		res, err := item.Service.EmbedBatch(ctx, texts)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
		logger.L().Warn("embedder batch failed", zap.Int("index", i), zap.String("name", item.Name),
			zap.Int("texts", len(texts)), zap.Error(err))
	}
	return nil, domain.NewProviderError("fallback", "embed", errors.Join(errs...))
}

// Dimensions returns the shared vector size.
func (g *Group) Dimensions() int {
	return g.items[0].Service.Dimensions()
}

// ModelName joins the model names of the chain with "|".
func (g *Group) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		names = append(names, item.Service.ModelName())
	}
	return strings.Join(names, "|")
}

// Ping succeeds when any provider is reachable.
func (g *Group) Ping(ctx context.Context) error {
	var errs []error
	for _, item := range g.items {
		err := item.Service.Ping(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return domain.NewProviderError("fallback", "ping", errors.Join(errs...))
}

// Close closes every provider.
func (g *Group) Close() error {
	var errs []error
	for _, item := range g.items {
		if err := item.Service.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.Name, err))
		}
	}
	return errors.Join(errs...)
}
