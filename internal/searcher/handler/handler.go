package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/tracing"
)

type Searcher interface {
	Search(ctx context.Context, req executor.Request) (*executor.SearchResult, error)
}

type Completer interface {
	Complete(ctx context.Context, prefix string, limit int) []string
}

type IndexStatter interface {
	Stats() index.Stats
}

type Handler struct {
	searcher  Searcher
	completer Completer
	index     IndexStatter
	cache     *cache.QueryCache
	collector *analytics.Collector
	logger    *slog.Logger
}

// New wires the HTTP surface. queryCache and collector may be nil.
func New(searcher Searcher, completer Completer, idx IndexStatter, queryCache *cache.QueryCache, collector *analytics.Collector) *Handler {
	return &Handler{
		searcher:  searcher,
		completer: completer,
		index:     idx,
		cache:     queryCache,
		collector: collector,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// SuggestResponse is the body of GET /api/v1/suggest.
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// Search serves GET /api/v1/search?q=&limit=&category=&balanced=&jlpt=.
// category may repeat or hold a comma separated list.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, err := parseRequest(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	ctx, span := tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))
	defer span.Log(ctx)
	defer span.End()

	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req, func(ctx context.Context) (*executor.SearchResult, error) {
			return h.searcher.Search(ctx, req)
		})
	} else {
		result, err = h.searcher.Search(ctx, req)
	}
	if err != nil {
		log.Warn("search failed", "query", req.Query, "error", err)
		h.writeAppError(w, err)
		return
	}
	if cacheHit {
		// equivalent requests share a cache entry
		result.Query = req.Query
	}
	span.SetAttr("cache_hit", cacheHit)

	latencyMs := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", req.Query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"strategy", result.TopStrategy(),
		"degraded", result.Degraded,
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.collector != nil {
		h.collector.TrackSearch(analytics.SearchEvent{
			Type:       analytics.EventSearch,
			Query:      req.Query,
			Forms:      result.Forms,
			Categories: categoryNames(req.Categories),
			TotalHits:  result.TotalHits,
			Returned:   len(result.Results),
			Strategy:   result.TopStrategy(),
			Strategies: result.Strategies,
			Degraded:   result.Degraded,
			LatencyMs:  latencyMs,
			CacheHit:   cacheHit,
			RequestID:  middleware.GetRequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Suggest serves GET /api/v1/suggest?q=&limit=. It always answers 200;
// unusable input yields an empty list.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	suggestions := h.completer.Complete(r.Context(), q, limit)
	if h.collector != nil {
		h.collector.TrackSearch(analytics.SearchEvent{
			Type:      analytics.EventSuggest,
			Query:     q,
			Returned:  len(suggestions),
			LatencyMs: time.Since(start).Milliseconds(),
			RequestID: middleware.GetRequestID(r.Context()),
		})
	}
	h.writeJSON(w, http.StatusOK, SuggestResponse{Query: q, Suggestions: suggestions})
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		h.writeAppError(w, apperrors.New(apperrors.ErrIndexNotReady, http.StatusServiceUnavailable, "index is not built"))
		return
	}
	h.writeJSON(w, http.StatusOK, h.index.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"breaker":  h.cache.BreakerState().String(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func parseRequest(r *http.Request) (executor.Request, error) {
	params := r.URL.Query()
	req := executor.Request{Query: params.Get("q")}
	if strings.TrimSpace(req.Query) == "" {
		return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required")
	}
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
		}
		req.Limit = n
	}
	for _, v := range params["category"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			c, err := dictionary.ParseCategory(name)
			if err != nil {
				return req, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown category %q", name)
			}
			req.Categories = append(req.Categories, c)
		}
	}
	if v := params.Get("balanced"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "balanced must be a boolean")
		}
		req.Balanced = b
	}
	if v := params.Get("jlpt"); v != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(v), "n"))
		if err != nil || n < 1 || n > 5 {
			return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "jlpt must be a level from 1 to 5")
		}
		req.JLPT = n
	}
	return req, nil
}

func categoryNames(categories []dictionary.Category) []string {
	if len(categories) == 0 {
		return nil
	}
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.String()
	}
	return out
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		h.writeError(w, appErr.StatusCode, appErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "search timed out")
	case errors.Is(err, context.Canceled):
		h.writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		status := apperrors.HTTPStatusCode(err)
		msg := http.StatusText(status)
		if status == http.StatusInternalServerError {
			msg = "search failed"
		}
		h.writeError(w, status, strings.ToLower(msg))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
