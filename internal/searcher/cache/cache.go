// Package cache keeps full search results in Redis. Concurrent misses for
// the same request are coalesced so that only one of them runs the search.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/resilience"
)

const keyPrefix = "dict:search:"

// Backend is the subset of the Redis client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a QueryCache over backend. m may be nil.
func New(backend Backend, cfg config.RedisConfig, m *metrics.Metrics) *QueryCache {
	c := &QueryCache{
		backend: backend,
		ttl:     cfg.CacheTTL,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     10 * time.Second,
		// a missing key says nothing about backend health
		IsFailure:     func(err error) bool { return err != nil && !pkgredis.IsNilError(err) },
		OnStateChange: func(_, to resilience.State) { c.setBreakerGauge(to) },
	})
	c.setBreakerGauge(resilience.StateClosed)
	return c
}

// Get returns the cached result for req. Backend failures count as misses.
func (c *QueryCache) Get(ctx context.Context, req executor.Request) (*executor.SearchResult, bool) {
	key := Key(req)
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", req.Query, "key", key)
	return &result, true
}

// Set stores result under req. Degraded results are not stored: a later
// request may well get the complete answer.
func (c *QueryCache) Set(ctx context.Context, req executor.Request, result *executor.SearchResult) {
	if result == nil || len(result.Degraded) > 0 {
		return
	}
	key := Key(req)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.breaker.Execute(func() error { return c.backend.Set(ctx, key, data, c.ttl) }); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for req or runs compute, sharing
// one compute call between concurrent callers of the same key. cached
// reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req executor.Request,
	compute func(ctx context.Context) (*executor.SearchResult, error),
) (result *executor.SearchResult, cached bool, err error) {
	if result, ok := c.Get(ctx, req); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(Key(req), func() (any, error) {
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached search result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w: %w", apperrors.ErrUnavailable, err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BreakerState is the state of the circuit guarding the backend.
func (c *QueryCache) BreakerState() resilience.State {
	return c.breaker.GetState()
}

func (c *QueryCache) setBreakerGauge(s resilience.State) {
	if c.metrics != nil {
		c.metrics.CircuitBreakerState.WithLabelValues("redis").Set(float64(s))
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Key derives the cache key of req. Requests that differ only in tag
// spelling, tag order, letter case or spacing share a key.
func Key(req executor.Request) string {
	plan := parser.Parse(req.Query)
	jlpt := req.JLPT
	if plan.JLPT > 0 {
		jlpt = plan.JLPT
	}
	raw := strings.Join([]string{
		strings.ToLower(plan.Text),
		"limit=" + strconv.Itoa(req.Limit),
		"categories=" + categoryList(req.Categories),
		"tags=" + categoryList(plan.Categories),
		"balanced=" + strconv.FormatBool(req.Balanced),
		"jlpt=" + strconv.Itoa(jlpt),
	}, "|")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func categoryList(categories []dictionary.Category) string {
	sorted := slices.Clone(categories)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	names := make([]string, len(sorted))
	for i, c := range sorted {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}
