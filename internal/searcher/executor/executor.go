// Package executor runs a full dictionary search: tag parsing,
// normalization, parallel strategy fan-out, merge and ranking.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/strategy"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/tracing"
)

// Request is one search call.
type Request struct {
	Query string `json:"query"`
	// Categories restricts results; empty means every category. Tags in the
	// query narrow it further.
	Categories []dictionary.Category `json:"categories,omitempty"`
	Limit      int                   `json:"limit"`
	// Balanced ranks each category separately so none can starve the
	// others.
	Balanced bool `json:"balanced,omitempty"`
	JLPT     int  `json:"jlpt,omitempty"`
}

// SearchResult is the outcome of a search. Results never holds more than
// the effective limit.
type SearchResult struct {
	Query      string                                  `json:"query"`
	Forms      []string                                `json:"forms"`
	TotalHits  int                                     `json:"total_hits"`
	Results    []ranker.Result                         `json:"results"`
	Buckets    map[dictionary.Category][]ranker.Result `json:"buckets,omitempty"`
	Strategies map[string]int                          `json:"strategies"`
	Degraded   []string                                `json:"degraded,omitempty"`
	TookMs     int64                                   `json:"took_ms"`
}

// TopStrategy is the strategy of the best result, or "" for no results.
func (r *SearchResult) TopStrategy() string {
	if len(r.Results) == 0 {
		return ""
	}
	return r.Results[0].Strategy.String()
}

type Executor struct {
	store      *index.Store
	normalizer *language.Normalizer
	strategies []strategy.Strategy
	weights    merger.Weights
	params     ranker.Params
	cfg        config.SearchConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New returns an Executor over store. m may be nil.
func New(store *index.Store, normalizer *language.Normalizer, cfg config.SearchConfig, m *metrics.Metrics) *Executor {
	return &Executor{
		store:      store,
		normalizer: normalizer,
		strategies: strategy.Set(strategy.FromConfig(cfg)),
		weights:    merger.WeightsFrom(cfg.Weights),
		params:     ranker.ParamsFrom(cfg),
		cfg:        cfg,
		metrics:    m,
		logger:     slog.Default().With("component", "query-executor"),
	}
}

// Store returns the index the executor searches.
func (e *Executor) Store() *index.Store { return e.store }

// Search runs every applicable strategy in parallel under the strategy
// timeout. A strategy that fails or runs out of time is reported in
// SearchResult.Degraded and does not fail the request. Only invalid input
// and cancellation of ctx are errors.
func (e *Executor) Search(ctx context.Context, req Request) (*SearchResult, error) {
	start := time.Now()
	plan := parser.Parse(req.Query)
	if plan.Text == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query is empty")
	}
	if n := utf8.RuneCountInString(plan.Text); e.cfg.MaxQueryLength > 0 && n > e.cfg.MaxQueryLength {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"query has %d characters, limit is %d", n, e.cfg.MaxQueryLength)
	}

	limit := e.limit(req.Limit)
	categories, ok := narrow(req.Categories, plan.Categories)
	jlpt := req.JLPT
	if plan.JLPT > 0 {
		jlpt = plan.JLPT
	}

	_, span := tracing.StartChildSpan(ctx, "normalize")
	q := e.normalizer.Normalize(plan.Text)
	span.SetAttr("forms", len(q.Forms))
	span.SetAttr("morphemes", len(q.Morphemes))
	span.End()
	result := &SearchResult{
		Query:      req.Query,
		Forms:      q.Texts(),
		Results:    []ranker.Result{},
		Strategies: make(map[string]int),
	}
	if !ok {
		result.TookMs = time.Since(start).Milliseconds()
		return result, nil
	}

	kinds, outputs, degraded := e.fanOut(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("searching %q: %w", plan.Text, err)
	}
	for i, kind := range kinds {
		if !slices.Contains(degraded, kind.String()) {
			result.Strategies[kind.String()] = len(outputs[i])
		}
	}
	result.Degraded = degraded

	_, span = tracing.StartChildSpan(ctx, "merge")
	merged := merger.Merge(e.store, outputs, merger.Options{
		Weights:    e.weights,
		Limit:      limit,
		Categories: categories,
		JLPT:       jlpt,
		Balanced:   req.Balanced,
	})
	result.TotalHits = merged.Total
	span.SetAttr("total_hits", merged.Total)
	span.End()

	_, span = tracing.StartChildSpan(ctx, "rank")
	if req.Balanced {
		result.Buckets = ranker.RankBuckets(e.store, q, merged.Buckets, e.params)
		result.Results = ranker.Interleave(result.Buckets, limit)
	} else {
		result.Results = ranker.Rank(e.store, q, merged.Hits, e.params)
	}
	if result.Results == nil {
		result.Results = []ranker.Result{}
	}
	span.End()
	result.TookMs = time.Since(start).Milliseconds()

	e.observe(result)
	logger.FromContext(ctx).Info("query executed",
		"component", "query-executor",
		"query", plan.Text,
		"forms", len(result.Forms),
		"strategies", len(outputs),
		"degraded", degraded,
		"total_hits", result.TotalHits,
		"results", len(result.Results),
		"took_ms", result.TookMs,
	)
	return result, nil
}

// fanOut runs the applicable strategies on a bounded worker group. outputs
// is indexed like kinds; failed strategies leave a nil slot.
func (e *Executor) fanOut(ctx context.Context, q *language.Query) ([]strategy.Kind, []strategy.Sequence, []string) {
	kinds := strategy.Applicable(q)
	e.observeSkipped(kinds)

	sctx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
	defer cancel()

	outputs := make([]strategy.Sequence, len(kinds))
	failures := make([]error, len(kinds))

	var g errgroup.Group
	g.SetLimit(max(e.cfg.Workers, 1))
	for i, kind := range kinds {
		s := e.strategies[kind]
		g.Go(func() error {
			began := time.Now()
			tctx, span := tracing.StartChildSpan(sctx, "strategy."+kind.String())
			defer span.End()
			var seq strategy.Sequence
			err := resilience.WithTimeout(tctx, e.cfg.StrategyTimeout, kind.String()+" strategy", func(c context.Context) (err error) {
				seq, err = s.Search(c, q, e.store)
				return err
			})
			took := time.Since(began)
			if err != nil {
				failures[i] = err
				span.SetAttr("outcome", outcomeOf(err))
				e.observeStrategy(kind, outcomeOf(err), took)
				return nil
			}
			outputs[i] = seq
			span.SetAttr("outcome", "ok")
			span.SetAttr("candidates", len(seq))
			e.observeStrategy(kind, "ok", took)
			return nil
		})
	}
	_ = g.Wait()

	var degraded []string
	for i, err := range failures {
		if err == nil {
			continue
		}
		degraded = append(degraded, kinds[i].String())
		e.logger.Warn("strategy excluded from merge", "strategy", kinds[i].String(), "error", err)
	}
	return kinds, outputs, degraded
}

func outcomeOf(err error) string {
	if errors.Is(err, apperrors.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func (e *Executor) limit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = e.cfg.PageSize
	}
	if e.cfg.MaxResults > 0 && limit > e.cfg.MaxResults {
		limit = e.cfg.MaxResults
	}
	return max(limit, 1)
}

// narrow intersects the requested categories with the tagged ones. ok is
// false when the intersection is empty although both were given.
func narrow(requested, tagged []dictionary.Category) ([]dictionary.Category, bool) {
	switch {
	case len(tagged) == 0:
		return requested, true
	case len(requested) == 0:
		return tagged, true
	}
	var out []dictionary.Category
	for _, c := range tagged {
		if slices.Contains(requested, c) {
			out = append(out, c)
		}
	}
	return out, len(out) > 0
}

func (e *Executor) observeStrategy(kind strategy.Kind, outcome string, took time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveStrategy(kind.String(), outcome, took)
	}
}

func (e *Executor) observeSkipped(applicable []strategy.Kind) {
	for _, k := range strategy.Kinds {
		if !slices.Contains(applicable, k) {
			e.observeStrategy(k, "skipped", 0)
		}
	}
}

func (e *Executor) observe(r *SearchResult) {
	if e.metrics == nil {
		return
	}
	resultType := "hit"
	switch {
	case len(r.Degraded) > 0:
		resultType = "degraded"
	case len(r.Results) == 0:
		resultType = "zero_result"
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.SearchResultsCount.Observe(float64(len(r.Results)))
}
