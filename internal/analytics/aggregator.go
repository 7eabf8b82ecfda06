package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/kafka"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64            `json:"total_searches"`
	TotalSuggests     int64            `json:"total_suggests"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	DegradedCount     int64            `json:"degraded_count"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	P50LatencyMs      int64            `json:"p50_latency_ms"`
	P95LatencyMs      int64            `json:"p95_latency_ms"`
	P99LatencyMs      int64            `json:"p99_latency_ms"`
	TopQueries        []QueryCount     `json:"top_queries"`
	ZeroResultQueries []QueryCount     `json:"zero_result_queries"`
	StrategyWins      map[string]int64 `json:"strategy_wins"`
	StrategyDegraded  map[string]int64 `json:"strategy_degraded"`
	IndexBuilds       int64            `json:"index_builds"`
	IndexEntries      int              `json:"index_entries"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds search events into running totals. It is safe for
// concurrent use.
type Aggregator struct {
	mu                sync.RWMutex
	stats             AggregatedStats
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator returns an Aggregator. consumer may be nil when events are
// fed through Record directly.
func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		stats: AggregatedStats{
			StrategyWins:     make(map[string]int64),
			StrategyDegraded: make(map[string]int64),
		},
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		consumer:          consumer,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// SetConsumer attaches the consumer Start reads from.
func (a *Aggregator) SetConsumer(consumer *kafka.Consumer) {
	a.consumer = consumer
}

func (a *Aggregator) Start(ctx context.Context) error {
	if a.consumer == nil {
		return fmt.Errorf("analytics aggregator has no consumer")
	}
	a.logger.Info("analytics aggregator starting")
	return a.consumer.Start(ctx)
}

// HandleEvent adapts the aggregator to a Kafka message handler. The
// consumer counts and skips messages it cannot decode.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		if err := agg.Decode(value); err != nil {
			return fmt.Errorf("event %q: %w", key, err)
		}
		return nil
	}
}

// Decode records one encoded event of any known type.
func (a *Aggregator) Decode(value []byte) error {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("decoding event type: %w", err)
	}
	switch env.Type {
	case EventSearch, EventSuggest:
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			return err
		}
		a.Record(event)
	case EventIndexBuild:
		event, err := kafka.DecodeJSON[IndexEvent](value)
		if err != nil {
			return err
		}
		a.RecordIndex(event)
	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}
	return nil
}

func (a *Aggregator) Record(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Type == EventSuggest {
		a.stats.TotalSuggests++
		return
	}
	a.stats.TotalSearches++
	if event.CacheHit {
		a.stats.CacheHits++
	} else {
		a.stats.CacheMisses++
	}
	if event.Returned == 0 {
		a.stats.ZeroResultCount++
		a.zeroResultQueries[event.Query]++
	}
	if len(event.Degraded) > 0 {
		a.stats.DegradedCount++
	}
	for _, s := range event.Degraded {
		a.stats.StrategyDegraded[s]++
	}
	if event.Strategy != "" {
		a.stats.StrategyWins[event.Strategy]++
	}
	a.queryCounts[event.Query]++

	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencySamples
	}
}

func (a *Aggregator) RecordIndex(event IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.IndexBuilds++
	a.stats.IndexEntries = event.Entries
}

// Restore seeds the running totals from a saved snapshot. Latency samples
// are not part of a snapshot and start empty.
func (a *Aggregator) Restore(snapshot AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = snapshot
	a.stats.StrategyWins = copyCounts(snapshot.StrategyWins)
	a.stats.StrategyDegraded = copyCounts(snapshot.StrategyDegraded)
	for _, q := range snapshot.TopQueries {
		a.queryCounts[q.Query] = q.Count
	}
	for _, q := range snapshot.ZeroResultQueries {
		a.zeroResultQueries[q.Query] = q.Count
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	stats.StrategyWins = copyCounts(a.stats.StrategyWins)
	stats.StrategyDegraded = copyCounts(a.stats.StrategyDegraded)
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n most frequent queries, ties broken by query text.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
