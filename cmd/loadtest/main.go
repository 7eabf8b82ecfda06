// Command loadtest drives a running searcher with a mix of search and
// autocomplete requests and prints per-endpoint latency and status
// breakdowns.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -concurrency 20 -duration 30s
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// queries covers every script path: kanji, kana, conjugated forms, romaji,
// English glosses, category tags and a deliberate typo.
var queries = []string{
	"食べる", "食べた", "たべる", "taberu", "tabeta",
	"飲む", "飲みました", "のむ", "nomu",
	"漢字", "かんじ", "kanji", "#kanji 食",
	"水", "みず", "water", "to eat", "to drink",
	"大きい", "大きかった", "ookii",
	"日本語", "にほんご", "nihongo", "Japanese language",
	"勉強する", "勉強した", "benkyou", "study",
	"田中", "#names たなか", "#n5 たべ", "食べるr", "タベル",
}

type endpointStats struct {
	total       atomic.Int64
	errors      atomic.Int64
	degraded    atomic.Int64
	empty       atomic.Int64
	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func newEndpointStats() *endpointStats {
	return &endpointStats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

func (s *endpointStats) record(took time.Duration, status int, err error) {
	s.total.Add(1)
	if err != nil || status < 200 || status >= 300 {
		s.errors.Add(1)
	}
	if err != nil {
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, took)
	s.statusCodes[status]++
	s.mu.Unlock()
}

type runner struct {
	baseURL      string
	suggestRatio int
	client       *http.Client
	search       *endpointStats
	suggest      *endpointStats
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	suggestRatio := flag.Int("suggest-every", 3, "send an autocomplete request every n requests (0 disables)")
	flag.Parse()

	r := &runner{
		baseURL:      *baseURL,
		suggestRatio: *suggestRatio,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        *concurrency * 2,
				MaxIdleConnsPerHost: *concurrency * 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		search:  newEndpointStats(),
		suggest: newEndpointStats(),
	}

	fmt.Println("=== Dictionary Search Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Queries:     %d unique\n\n", len(queries))

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	r.run(ctx, *concurrency)

	r.report("search", r.search, *duration)
	if r.suggestRatio > 0 {
		r.report("suggest", r.suggest, *duration)
	}
	if r.search.total.Load()+r.suggest.total.Load() == 0 {
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func (r *runner) run(ctx context.Context, concurrency int) {
	var wg sync.WaitGroup
	for w := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := w; ctx.Err() == nil; n++ {
				q := queries[n%len(queries)]
				if r.suggestRatio > 0 && n%r.suggestRatio == 0 {
					r.doSuggest(ctx, prefixOf(q, 1+n%3))
				} else {
					r.doSearch(ctx, q)
				}
			}
		}()
	}
	wg.Wait()
	fmt.Println()
}

func (r *runner) doSearch(ctx context.Context, q string) {
	var body struct {
		TotalHits int      `json:"total_hits"`
		Degraded  []string `json:"degraded"`
	}
	status, took, err := r.get(ctx, fmt.Sprintf("%s/api/v1/search?q=%s&limit=10", r.baseURL, url.QueryEscape(q)), &body)
	if ctx.Err() != nil {
		return
	}
	r.search.record(took, status, err)
	if err == nil && status == http.StatusOK {
		if len(body.Degraded) > 0 {
			r.search.degraded.Add(1)
		}
		if body.TotalHits == 0 {
			r.search.empty.Add(1)
		}
	}
}

func (r *runner) doSuggest(ctx context.Context, prefix string) {
	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	status, took, err := r.get(ctx, fmt.Sprintf("%s/api/v1/suggest?q=%s", r.baseURL, url.QueryEscape(prefix)), &body)
	if ctx.Err() != nil {
		return
	}
	r.suggest.record(took, status, err)
	if err == nil && status == http.StatusOK && len(body.Suggestions) == 0 {
		r.suggest.empty.Add(1)
	}
}

func (r *runner) get(ctx context.Context, rawURL string, into any) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, time.Since(start), err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		err = json.NewDecoder(resp.Body).Decode(into)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, time.Since(start), err
}

func prefixOf(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func (r *runner) report(name string, s *endpointStats, duration time.Duration) {
	total := s.total.Load()
	fmt.Printf("=== %s ===\n", name)
	fmt.Printf("Requests:      %d (%.2f/s)\n", total, float64(total)/duration.Seconds())
	fmt.Printf("Errors:        %d\n", s.errors.Load())
	fmt.Printf("Empty results: %d\n", s.empty.Load())
	if name == "search" {
		fmt.Printf("Degraded:      %d\n", s.degraded.Load())
	}

	s.mu.Lock()
	latencies := slices.Clone(s.latencies)
	codes := make([]int, 0, len(s.statusCodes))
	for code := range s.statusCodes {
		codes = append(codes, code)
	}
	counts := make(map[int]int64, len(s.statusCodes))
	for code, n := range s.statusCodes {
		counts[code] = n
	}
	s.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		fmt.Printf("Latency min/avg/max: %s / %s / %s\n", latencies[0], sum/time.Duration(len(latencies)), latencies[len(latencies)-1])
		fmt.Printf("Latency p50/p95/p99: %s / %s / %s\n",
			percentile(latencies, 50), percentile(latencies, 95), percentile(latencies, 99))
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, counts[code])
	}
	fmt.Println()
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}
