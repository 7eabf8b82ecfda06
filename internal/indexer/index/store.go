// Package index holds the immutable, in-memory dictionary index: the dense
// entry table, exact and prefix lookups over surfaces and glosses, the
// n-gram posting index and the per-entry term vectors.
package index

import (
	"iter"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
)

// Store is read-only after Build and safe for concurrent readers without
// locking. Every reference to an entry is its id into the entry table.
type Store struct {
	entries []dictionary.Entry

	exact map[string][]uint32
	gloss map[string][]uint32

	surfaceTrie *patricia.Trie
	glossTrie   *patricia.Trie

	postings map[string]PostingList

	vectors []Vector
	dims    map[string]uint32
	docFreq []int
	support []*roaring.Bitmap

	builtAt time.Time
}

// PrefixMatch is one key found under a prefix and the entries it belongs
// to, ordered by frequency descending then id.
type PrefixMatch struct {
	Key string
	IDs []uint32
}

// Stats describes the size of a built store.
type Stats struct {
	Entries     int                         `json:"entries"`
	ByCategory  map[dictionary.Category]int `json:"by_category"`
	ExactKeys   int                         `json:"exact_keys"`
	GlossKeys   int                         `json:"gloss_keys"`
	Grams       int                         `json:"grams"`
	VectorTerms int                         `json:"vector_terms"`
	BuiltAt     time.Time                   `json:"built_at"`
}

// Len is the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entry returns the entry with the given id.
func (s *Store) Entry(id uint32) (dictionary.Entry, bool) {
	if int(id) >= len(s.entries) {
		return dictionary.Entry{}, false
	}
	return s.entries[id], true
}

// Frequency is a shortcut for the entry's frequency rank; unknown ids rank 0.
func (s *Store) Frequency(id uint32) int {
	if int(id) >= len(s.entries) {
		return 0
	}
	return s.entries[id].Frequency
}

// Category returns the entry's category; unknown ids report Word.
func (s *Store) Category(id uint32) dictionary.Category {
	if int(id) >= len(s.entries) {
		return dictionary.Word
	}
	return s.entries[id].Category
}

// Exact returns the entries with a kanji spelling or reading equal to form.
func (s *Store) Exact(form string) []uint32 {
	return s.exact[form]
}

// Gloss returns the entries with a gloss whose key equals key. Keys come
// from tokenizer.GlossKey.
func (s *Store) Gloss(key string) []uint32 {
	return s.gloss[key]
}

// Order ranks prefix matches when only the best n of a subtree are kept.
type Order uint8

const (
	// ByLength puts shorter keys first, then sorts by key.
	ByLength Order = iota
	// ByFrequency puts keys whose best entry is more frequent first, then
	// sorts by key.
	ByFrequency
)

// PrefixMatches walks every surface key starting with prefix and returns
// the n best under order. n <= 0 keeps them all.
func (s *Store) PrefixMatches(prefix string, n int, order Order) []PrefixMatch {
	return s.topPrefix(s.surfaceTrie, prefix, n, order)
}

// GlossPrefixMatches is PrefixMatches over gloss keys.
func (s *Store) GlossPrefixMatches(prefix string, n int, order Order) []PrefixMatch {
	return s.topPrefix(s.glossTrie, prefix, n, order)
}

func (s *Store) topPrefix(trie *patricia.Trie, prefix string, n int, order Order) []PrefixMatch {
	if trie == nil || prefix == "" {
		return nil
	}
	h := &matchHeap{better: betterMatch(order)}
	_ = trie.VisitSubtree(patricia.Prefix(prefix), func(key patricia.Prefix, item patricia.Item) error {
		ids, ok := item.([]uint32)
		if !ok || len(ids) == 0 {
			return nil
		}
		k := string(key)
		h.offer(rankedMatch{
			PrefixMatch: PrefixMatch{Key: k, IDs: ids},
			runes:       utf8.RuneCountInString(k),
			freq:        s.Frequency(ids[0]),
		}, n)
		return nil
	})
	return h.sorted()
}

// Postings returns the posting list of gram, ordered by entry id.
func (s *Store) Postings(gram string) PostingList {
	return s.postings[gram]
}

// Vector returns the term vector of an entry.
func (s *Store) Vector(id uint32) Vector {
	if int(id) >= len(s.vectors) {
		return Vector{}
	}
	return s.vectors[id]
}

// QueryVector weighs terms with the index-time scheme. Terms without a
// dimension still add to the vector's length, so a query with unknown terms
// never looks identical to an entry.
func (s *Store) QueryVector(terms []string) Vector {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	n := len(s.entries)
	var (
		dims    []uint32
		weights = make(map[uint32]float64, len(tf))
		extra   float64
	)
	for term, count := range tf {
		dim, ok := s.dims[term]
		if !ok {
			w := float64(count) * idf(n, 0)
			extra += w * w
			continue
		}
		dims = append(dims, dim)
		weights[dim] = float64(count) * idf(n, s.docFreq[dim])
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })
	ws := make([]float64, len(dims))
	for i, d := range dims {
		ws[i] = weights[d]
	}
	return newVector(dims, ws, extra)
}

// VectorCandidates yields, in ascending order, the ids of entries whose
// vector shares at least one dimension with q.
func (s *Store) VectorCandidates(q Vector) iter.Seq[uint32] {
	bitmaps := make([]*roaring.Bitmap, 0, len(q.Dims))
	for _, d := range q.Dims {
		if int(d) < len(s.support) {
			bitmaps = append(bitmaps, s.support[d])
		}
	}
	if len(bitmaps) == 0 {
		return func(func(uint32) bool) {}
	}
	union := roaring.FastOr(bitmaps...)
	return func(yield func(uint32) bool) {
		it := union.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Stats reports index sizes.
func (s *Store) Stats() Stats {
	st := Stats{
		Entries:     len(s.entries),
		ByCategory:  make(map[dictionary.Category]int, len(dictionary.Categories)),
		ExactKeys:   len(s.exact),
		GlossKeys:   len(s.gloss),
		Grams:       len(s.postings),
		VectorTerms: len(s.dims),
		BuiltAt:     s.builtAt,
	}
	for i := range s.entries {
		st.ByCategory[s.entries[i].Category]++
	}
	return st
}
