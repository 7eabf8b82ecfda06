// Package analytics collects search events on the serving path, publishes
// them to Kafka and aggregates them on the consuming side.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventSuggest    EventType = "suggest"
	EventIndexBuild EventType = "index_build"
)

// SearchEvent describes one served search or suggestion request.
type SearchEvent struct {
	Type       EventType      `json:"type"`
	Query      string         `json:"query"`
	Forms      []string       `json:"forms,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	TotalHits  int            `json:"total_hits"`
	Returned   int            `json:"returned"`
	Strategy   string         `json:"strategy,omitempty"`
	Strategies map[string]int `json:"strategies,omitempty"`
	Degraded   []string       `json:"degraded,omitempty"`
	LatencyMs  int64          `json:"latency_ms"`
	CacheHit   bool           `json:"cache_hit"`
	Timestamp  time.Time      `json:"timestamp"`
	RequestID  string         `json:"request_id,omitempty"`
}

// IndexEvent is emitted once per index build.
type IndexEvent struct {
	Type       EventType      `json:"type"`
	Entries    int            `json:"entries"`
	ByCategory map[string]int `json:"by_category"`
	Grams      int            `json:"grams"`
	LatencyMs  int64          `json:"latency_ms"`
	Timestamp  time.Time      `json:"timestamp"`
}

// envelope peeks at the type of an encoded event.
type envelope struct {
	Type EventType `json:"type"`
}
