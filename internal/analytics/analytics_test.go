package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	events  []kafka.Event
	batches int
	fails   int
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails > 0 {
		p.fails--
		return errors.New("broker unavailable")
	}
	p.batches++
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) published() []kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.Event(nil), p.events...)
}

func collectorConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{BufferSize: 100, BatchSize: 3, FlushInterval: time.Hour}
}

func TestCollectorPublishesFullBatches(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, collectorConfig())
	c.Start(context.Background())
	for i := 0; i < 3; i++ {
		c.TrackSearch(SearchEvent{Type: EventSearch, Query: fmt.Sprintf("q%d", i)})
	}
	assert.Eventually(t, func() bool { return len(pub.published()) == 3 }, time.Second, 5*time.Millisecond)
	c.Close()

	ev := pub.published()[0]
	assert.Equal(t, "search", ev.Key)
	se := ev.Value.(SearchEvent)
	assert.Equal(t, "q0", se.Query)
	assert.False(t, se.Timestamp.IsZero())
}

func TestCollectorFlushesOnInterval(t *testing.T) {
	pub := &fakePublisher{}
	cfg := collectorConfig()
	cfg.FlushInterval = 10 * time.Millisecond
	c := NewCollector(pub, cfg)
	c.Start(context.Background())
	defer c.Close()
	c.TrackSearch(SearchEvent{Type: EventSuggest, Query: "たべ"})
	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestCollectorCloseFlushesRemainder(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, collectorConfig())
	c.Start(context.Background())
	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "a"})
	c.TrackIndex(IndexEvent{Entries: 15})
	c.Close()
	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, "index_build", events[1].Key)

	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "late"})
	assert.Equal(t, int64(1), c.Dropped())
}

func TestCollectorCancelFlushesRemainder(t *testing.T) {
	pub := &fakePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCollector(pub, collectorConfig())
	c.Start(ctx)
	c.TrackSearch(SearchEvent{Type: EventSearch, Query: "a"})
	time.Sleep(10 * time.Millisecond)
	cancel()
	c.Close()
	assert.Len(t, pub.published(), 1)
}

func TestCollectorRetriesFailedBatch(t *testing.T) {
	pub := &fakePublisher{fails: 1}
	c := NewCollector(pub, collectorConfig())
	c.Start(context.Background())
	for i := 0; i < 4; i++ {
		c.TrackSearch(SearchEvent{Type: EventSearch, Query: fmt.Sprintf("q%d", i)})
	}
	c.Close()
	events := pub.published()
	require.Len(t, events, 4)
	assert.Equal(t, "q0", events[0].Value.(SearchEvent).Query)
	assert.Zero(t, c.Dropped())
}

func TestCollectorDropsWhenBufferFull(t *testing.T) {
	c := NewCollector(&fakePublisher{}, config.AnalyticsConfig{BufferSize: 1, BatchSize: 10, FlushInterval: time.Hour})
	// not started, so nothing drains the buffer
	c.TrackSearch(SearchEvent{Type: EventSearch})
	c.TrackSearch(SearchEvent{Type: EventSearch})
	assert.Equal(t, int64(1), c.Dropped())
}

func TestAggregatorRecord(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Record(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 5, Strategy: "exact", LatencyMs: 10})
	agg.Record(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 5, Strategy: "exact", LatencyMs: 20, CacheHit: true})
	agg.Record(SearchEvent{Type: EventSearch, Query: "たべまず", Returned: 3, Strategy: "ngram", Degraded: []string{"vector"}, LatencyMs: 30})
	agg.Record(SearchEvent{Type: EventSearch, Query: "zzzz", LatencyMs: 40})
	agg.Record(SearchEvent{Type: EventSuggest, Query: "た"})

	stats := agg.Stats()
	assert.Equal(t, int64(4), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.TotalSuggests)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(3), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
	assert.Equal(t, int64(1), stats.DegradedCount)
	assert.Equal(t, map[string]int64{"exact": 2, "ngram": 1}, stats.StrategyWins)
	assert.Equal(t, map[string]int64{"vector": 1}, stats.StrategyDegraded)
	assert.Equal(t, QueryCount{Query: "食べる", Count: 2}, stats.TopQueries[0])
	assert.Equal(t, []QueryCount{{Query: "zzzz", Count: 1}}, stats.ZeroResultQueries)
	assert.InDelta(t, 25.0, stats.AvgLatencyMs, 1e-9)
	assert.Equal(t, int64(30), stats.P50LatencyMs)
	assert.Equal(t, int64(40), stats.P99LatencyMs)
}

func TestAggregatorStatsIsACopy(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Record(SearchEvent{Type: EventSearch, Query: "a", Returned: 1, Strategy: "exact"})
	stats := agg.Stats()
	stats.StrategyWins["exact"] = 100
	assert.Equal(t, int64(1), agg.Stats().StrategyWins["exact"])
}

func TestHandleEventDecodesByType(t *testing.T) {
	agg := NewAggregator(nil)
	handle := HandleEvent(agg)
	search, _ := json.Marshal(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 1, Strategy: "exact"})
	index, _ := json.Marshal(IndexEvent{Type: EventIndexBuild, Entries: 15})
	require.NoError(t, handle(context.Background(), []byte("search"), search))
	require.NoError(t, handle(context.Background(), []byte("index_build"), index))
	assert.Error(t, handle(context.Background(), nil, []byte(`{"type":"mystery"}`)))
	assert.Error(t, handle(context.Background(), nil, []byte(`not json`)))
	stats := agg.Stats()
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.IndexBuilds)
	assert.Equal(t, 15, stats.IndexEntries)
	assert.Error(t, agg.Decode([]byte(`{"type":"mystery"}`)))
}

func TestTopNOrdersTiesByQuery(t *testing.T) {
	got := topN(map[string]int64{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	assert.Equal(t, []QueryCount{{"c", 5}, {"a", 2}, {"b", 2}}, got)
}

func openSnapshotStore(t *testing.T) *SnapshotStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	store := NewSnapshotStore(db, resource.SQLite)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSnapshotStore(t *testing.T) {
	store := openSnapshotStore(t)
	ctx := context.Background()

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	agg := NewAggregator(nil)
	agg.Record(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 1, Strategy: "exact"})
	require.NoError(t, store.Save(ctx, agg.Stats()))
	agg.Record(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 1, Strategy: "morph"})
	require.NoError(t, store.Save(ctx, agg.Stats()))

	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(2), latest.TotalSearches)

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].TotalSearches)
	assert.Equal(t, int64(1), list[1].TotalSearches)
}

func TestRestoreFromSnapshot(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Record(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 1, Strategy: "exact"})
	restored := NewAggregator(nil)
	restored.Restore(agg.Stats())
	restored.Record(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 1, Strategy: "exact"})

	stats := restored.Stats()
	assert.Equal(t, int64(2), stats.TotalSearches)
	assert.Equal(t, int64(2), stats.StrategyWins["exact"])
	assert.Equal(t, QueryCount{Query: "食べる", Count: 2}, stats.TopQueries[0])
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Record(SearchEvent{Type: EventSearch, Query: "食べる", Returned: 1, Strategy: "exact"})
	rec := httptest.NewRecorder()
	NewHandler(agg, nil).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.TotalSearches)
}

func TestHandlerSnapshots(t *testing.T) {
	agg := NewAggregator(nil)
	rec := httptest.NewRecorder()
	NewHandler(agg, nil).Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store := openSnapshotStore(t)
	require.NoError(t, store.Save(context.Background(), agg.Stats()))
	h := NewHandler(agg, store)

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 1)

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
