// Package indexer builds the dictionary index from a resource provider.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/metrics"
)

type Engine struct {
	provider resource.Provider
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewEngine returns an Engine reading from provider. m may be nil.
func NewEngine(provider resource.Provider, m *metrics.Metrics) *Engine {
	return &Engine{
		provider: provider,
		metrics:  m,
		logger:   slog.Default().With("component", "index-builder"),
	}
}

// Build loads every category concurrently and builds the store. Any missing
// or malformed category fails the whole build.
func (e *Engine) Build(ctx context.Context) (*index.Store, error) {
	start := time.Now()
	loaded := make([][]dictionary.Record, len(dictionary.Categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range dictionary.Categories {
		g.Go(func() error {
			recs, err := e.provider.Load(gctx, category)
			if err != nil {
				return fmt.Errorf("loading %s: %w", category, err)
			}
			if len(recs) == 0 {
				return fmt.Errorf("loading %s: %w", category, apperrors.ErrCategoryMissing)
			}
			loaded[i] = recs
			e.logger.Debug("category loaded", "category", category.String(), "records", len(recs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := index.NewBuilder()
	for i, category := range dictionary.Categories {
		for _, rec := range loaded[i] {
			if _, err := b.Add(category, rec); err != nil {
				return nil, fmt.Errorf("indexing %s: %w: %w", category, apperrors.ErrMalformedResource, err)
			}
		}
	}
	store := b.Build()

	stats := store.Stats()
	took := time.Since(start)
	if e.metrics != nil {
		e.metrics.ObserveIndexBuild(took, stats)
	}
	e.logger.Info("index built",
		"entries", stats.Entries,
		"words", stats.ByCategory[dictionary.Word],
		"kanji", stats.ByCategory[dictionary.Kanji],
		"names", stats.ByCategory[dictionary.Name],
		"sentences", stats.ByCategory[dictionary.Sentence],
		"grams", stats.Grams,
		"vector_terms", stats.VectorTerms,
		"took", took,
	)
	return store, nil
}
