// Package merger combines the candidate sequences of several strategies into
// one deduplicated, bounded, deterministically ordered hit list.
package merger

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/strategy"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
)

// Hit is the surviving candidate of one entry. Score is the strategy score
// multiplied by the strategy weight.
type Hit struct {
	EntryID   uint32
	Category  dictionary.Category
	Frequency int
	Score     float64
	Kind      strategy.Kind
	Form      string
}

// Better is the total order of hits: weighted score descending, frequency
// descending, entry id ascending, then category order.
func Better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Frequency != b.Frequency {
		return a.Frequency > b.Frequency
	}
	if a.EntryID != b.EntryID {
		return a.EntryID < b.EntryID
	}
	return a.Category < b.Category
}

// Weights maps strategy kinds to their merge weight.
type Weights [5]float64

// WeightsFrom converts the configured weights.
func WeightsFrom(w config.StrategyWeights) Weights {
	var out Weights
	out[strategy.Exact] = w.Exact
	out[strategy.MorphologicalBase] = w.Morph
	out[strategy.Prefix] = w.Prefix
	out[strategy.NGramFuzzy] = w.NGram
	out[strategy.VectorSimilarity] = w.Vector
	return out
}

// Options controls one merge.
type Options struct {
	Weights Weights
	// Limit is the capacity of each bounded container.
	Limit int
	// Categories restricts hits to the listed categories; empty means all.
	Categories []dictionary.Category
	// JLPT restricts hits to entries of that level; 0 means any.
	JLPT int
	// Balanced keeps one container per category instead of a global one.
	Balanced bool
}

// Result is the outcome of a merge. Exactly one of Hits or Buckets is set,
// depending on Options.Balanced.
type Result struct {
	Hits    []Hit
	Buckets map[dictionary.Category][]Hit
	// Total counts the distinct entries that passed the filters, before the
	// cut.
	Total int
}

// Merge deduplicates the candidates of all sequences by entry, keeping the
// highest weighted score, filters them and cuts them to opts.Limit.
func Merge(store *index.Store, outputs []strategy.Sequence, opts Options) Result {
	best := make(map[uint32]Hit)
	for _, seq := range outputs {
		for c := range seq.All() {
			w := opts.Weights[c.Kind]
			if w <= 0 {
				continue
			}
			e, ok := store.Entry(c.EntryID)
			if !ok || !admits(&e, opts) {
				continue
			}
			h := Hit{
				EntryID:   c.EntryID,
				Category:  e.Category,
				Frequency: e.Frequency,
				Score:     c.Score * w,
				Kind:      c.Kind,
				Form:      c.Form,
			}
			if cur, seen := best[h.EntryID]; seen && !replaces(h, cur) {
				continue
			}
			best[h.EntryID] = h
		}
	}

	res := Result{Total: len(best)}
	if !opts.Balanced {
		top := NewTopK(opts.Limit, Better)
		for _, h := range best {
			top.Push(h)
		}
		res.Hits = top.Drain()
		return res
	}

	buckets := make(map[dictionary.Category]*TopK[Hit])
	for _, h := range best {
		b, ok := buckets[h.Category]
		if !ok {
			b = NewTopK(opts.Limit, Better)
			buckets[h.Category] = b
		}
		b.Push(h)
	}
	res.Buckets = make(map[dictionary.Category][]Hit, len(buckets))
	for c, b := range buckets {
		res.Buckets[c] = b.Drain()
	}
	return res
}

// replaces reports whether h should replace the kept hit of the same entry.
func replaces(h, cur Hit) bool {
	if h.Score != cur.Score {
		return h.Score > cur.Score
	}
	if h.Kind != cur.Kind {
		return h.Kind < cur.Kind
	}
	return h.Form < cur.Form
}

func admits(e *dictionary.Entry, opts Options) bool {
	if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, e.Category) {
		return false
	}
	if opts.JLPT > 0 && e.JLPT != opts.JLPT {
		return false
	}
	return true
}
