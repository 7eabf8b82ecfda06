// Package ranker turns merged hits into the final, display-ordered results.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/strategy"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
)

// Result is one ranked dictionary entry.
type Result struct {
	Entry    dictionary.Entry `json:"entry"`
	Score    float64          `json:"score"`
	Strategy strategy.Kind    `json:"strategy"`
	Form     string           `json:"matched_form"`
}

type Params struct {
	FrequencyWeight float64
	ScriptBonus     float64
}

// ParamsFrom extracts ranking parameters from the search configuration.
func ParamsFrom(cfg config.SearchConfig) Params {
	return Params{FrequencyWeight: cfg.FrequencyWeight, ScriptBonus: cfg.ScriptBonus}
}

// Score computes
//
//	score + ln(frequency+1)*FrequencyWeight + bonus
//
// where bonus is ScriptBonus when the matched form is written in the
// query's dominant script. The result is rounded to four decimals.
func Score(p Params, h merger.Hit, dominant language.Script) float64 {
	s := h.Score + math.Log(float64(h.Frequency)+1)*p.FrequencyWeight
	if dominant != language.Unclassified && h.Form != "" && language.DetectScript(h.Form).Dominant() == dominant {
		s += p.ScriptBonus
	}
	return math.Round(s*10000) / 10000
}

// Rank scores hits and orders them by final score descending, frequency
// descending, then entry id.
func Rank(store *index.Store, q *language.Query, hits []merger.Hit, p Params) []Result {
	dominant := q.Script.Dominant()
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		e, ok := store.Entry(h.EntryID)
		if !ok {
			continue
		}
		results = append(results, Result{
			Entry:    e,
			Score:    Score(p, h, dominant),
			Strategy: h.Kind,
			Form:     h.Form,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Entry.Frequency != b.Entry.Frequency {
			return a.Entry.Frequency > b.Entry.Frequency
		}
		return a.Entry.ID < b.Entry.ID
	})
	return results
}

// RankBuckets ranks every category bucket independently.
func RankBuckets(store *index.Store, q *language.Query, buckets map[dictionary.Category][]merger.Hit, p Params) map[dictionary.Category][]Result {
	out := make(map[dictionary.Category][]Result, len(buckets))
	for c, hits := range buckets {
		out[c] = Rank(store, q, hits, p)
	}
	return out
}

// Interleave takes one result from each category in category order, round
// robin, until limit results are taken or every bucket is exhausted.
func Interleave(buckets map[dictionary.Category][]Result, limit int) []Result {
	var out []Result
	for i := 0; ; i++ {
		took := false
		for _, c := range dictionary.Categories {
			if limit > 0 && len(out) >= limit {
				return out
			}
			if i < len(buckets[c]) {
				out = append(out, buckets[c][i])
				took = true
			}
		}
		if !took {
			return out
		}
	}
}
