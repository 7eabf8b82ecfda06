package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary/dictionarytest"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/suggest"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/middleware"
)

type mapBackend struct {
	mu   sync.Mutex
	data map[string]string
}

func (b *mapBackend) Get(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (b *mapBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = string(value.([]byte))
	return nil
}

func (b *mapBackend) FlushByPattern(context.Context, string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := int64(len(b.data))
	b.data = make(map[string]string)
	return n, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

type fixture struct {
	handler   *Handler
	publisher *recordingPublisher
	collector *analytics.Collector
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	store, err := index.BuildFrom(dictionarytest.Records())
	require.NoError(t, err)
	cfg := config.Default()
	exec := executor.New(store, language.NewNormalizer(dictionarytest.Analyzer()), cfg.Search, nil)
	sg := suggest.New(store, cfg.Suggest, nil)

	pub := &recordingPublisher{}
	collector := analytics.NewCollector(pub, config.AnalyticsConfig{BufferSize: 100, BatchSize: 100, FlushInterval: time.Hour})
	collector.Start(context.Background())

	var qc *cache.QueryCache
	if withCache {
		qc = cache.New(&mapBackend{data: make(map[string]string)}, cfg.Redis, nil)
	}
	return &fixture{
		handler:   New(exec, sg, store, qc, collector),
		publisher: pub,
		collector: collector,
	}
}

// events closes the collector and returns everything it published.
func (f *fixture) events() []analytics.SearchEvent {
	f.collector.Close()
	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	out := make([]analytics.SearchEvent, 0, len(f.publisher.events))
	for _, e := range f.publisher.events {
		out = append(out, e.Value.(analytics.SearchEvent))
	}
	return out
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) executor.SearchResult {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var res executor.SearchResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestSearch(t *testing.T) {
	f := newFixture(t, false)
	res := decodeResult(t, get(f.handler.Search, "/api/v1/search?q=%E9%A3%9F%E3%81%B9%E3%82%8B&limit=5"))
	require.NotEmpty(t, res.Results)
	assert.LessOrEqual(t, len(res.Results), 5)
	assert.Equal(t, dictionarytest.Taberu, res.Results[0].Entry.ID)
	assert.Equal(t, "食べる", res.Query)

	events := f.events()
	require.Len(t, events, 1)
	assert.Equal(t, analytics.EventSearch, events[0].Type)
	assert.Equal(t, "exact", events[0].Strategy)
	assert.False(t, events[0].CacheHit)
}

func TestSearchRequestIDReachesEvent(t *testing.T) {
	f := newFixture(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=food", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	middleware.RequestID(http.HandlerFunc(f.handler.Search)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	events := f.events()
	require.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestSearchCategoryFilter(t *testing.T) {
	f := newFixture(t, false)
	res := decodeResult(t, get(f.handler.Search, "/api/v1/search?q=food&category=kanji"))
	require.NotEmpty(t, res.Results)
	for _, r := range res.Results {
		assert.Equal(t, dictionary.Kanji, r.Entry.Category)
	}
}

func TestSearchBalanced(t *testing.T) {
	f := newFixture(t, false)
	res := decodeResult(t, get(f.handler.Search, "/api/v1/search?q=%E3%81%9F&balanced=true&limit=4"))
	assert.NotEmpty(t, res.Buckets)
	assert.LessOrEqual(t, len(res.Results), 4)
}

func TestSearchBadParameters(t *testing.T) {
	f := newFixture(t, false)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=%20%20",
		"/api/v1/search?q=food&limit=0",
		"/api/v1/search?q=food&limit=abc",
		"/api/v1/search?q=food&category=verbs",
		"/api/v1/search?q=food&balanced=maybe",
		"/api/v1/search?q=food&jlpt=7",
		"/api/v1/search?q=%23kanji",
	} {
		rec := get(f.handler.Search, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestSearchNoMatch(t *testing.T) {
	f := newFixture(t, false)
	res := decodeResult(t, get(f.handler.Search, "/api/v1/search?q=zzzz"))
	assert.Empty(t, res.Results)
	assert.Zero(t, res.TotalHits)
}

func TestSearchCached(t *testing.T) {
	f := newFixture(t, true)
	first := decodeResult(t, get(f.handler.Search, "/api/v1/search?q=food"))
	second := decodeResult(t, get(f.handler.Search, "/api/v1/search?q=FOOD"))
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, "FOOD", second.Query)

	events := f.events()
	require.Len(t, events, 2)
	assert.False(t, events[0].CacheHit)
	assert.True(t, events[1].CacheHit)

	stats := get(f.handler.CacheStats, "/api/v1/cache/stats")
	var body map[string]any
	require.NoError(t, json.NewDecoder(stats.Body).Decode(&body))
	assert.Equal(t, 1.0, body["hits"])
	assert.Equal(t, "closed", body["breaker"])
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, http.StatusOK, get(f.handler.CacheStats, "/api/v1/cache/stats").Code)
	rec := httptest.NewRecorder()
	f.handler.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCacheInvalidate(t *testing.T) {
	f := newFixture(t, true)
	get(f.handler.Search, "/api/v1/search?q=food")
	rec := httptest.NewRecorder()
	f.handler.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	get(f.handler.Search, "/api/v1/search?q=food")
	events := f.events()
	require.Len(t, events, 2)
	assert.False(t, events[1].CacheHit)
}

func TestSuggest(t *testing.T) {
	f := newFixture(t, false)
	rec := get(f.handler.Suggest, "/api/v1/suggest?q=%E6%BC%A2&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var body SuggestResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"漢字", "漢"}, body.Suggestions)

	events := f.events()
	require.Len(t, events, 1)
	assert.Equal(t, analytics.EventSuggest, events[0].Type)
	assert.Equal(t, 2, events[0].Returned)
}

func TestSuggestEmptyInput(t *testing.T) {
	f := newFixture(t, false)
	rec := get(f.handler.Suggest, "/api/v1/suggest")
	require.Equal(t, http.StatusOK, rec.Code)
	var body SuggestResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotNil(t, body.Suggestions)
	assert.Empty(t, body.Suggestions)

	assert.Equal(t, http.StatusBadRequest, get(f.handler.Suggest, "/api/v1/suggest?q=a&limit=-1").Code)
}

func TestIndexStats(t *testing.T) {
	f := newFixture(t, false)
	rec := get(f.handler.IndexStats, "/api/v1/index/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats index.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 15, stats.Entries)
	assert.Equal(t, 2, stats.ByCategory[dictionary.Sentence])

	h := New(nil, nil, nil, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(h.IndexStats, "/api/v1/index/stats").Code)
}

type failingSearcher struct{ err error }

func (s failingSearcher) Search(context.Context, executor.Request) (*executor.SearchResult, error) {
	return nil, s.err
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h := New(failingSearcher{err: tt.err}, nil, nil, nil, nil)
		rec := get(h.Search, "/api/v1/search?q=food")
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}
