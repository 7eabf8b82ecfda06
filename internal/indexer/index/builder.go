package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/inflect"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
)

// Builder collects entries and produces a Store. It is not safe for
// concurrent use and must not be reused after Build.
type Builder struct {
	entries []dictionary.Entry
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add assigns the next dense id to rec and returns it.
func (b *Builder) Add(category dictionary.Category, rec dictionary.Record) (uint32, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	id := uint32(len(b.entries))
	b.entries = append(b.entries, dictionary.Entry{ID: id, Category: category, Record: rec})
	return id, nil
}

// Len is the number of entries added so far.
func (b *Builder) Len() int { return len(b.entries) }

// Build freezes the collected entries into a Store.
func (b *Builder) Build() *Store {
	s := &Store{
		entries:  b.entries,
		exact:    make(map[string][]uint32),
		gloss:    make(map[string][]uint32),
		postings: make(map[string]PostingList),
		builtAt:  time.Now(),
	}
	b.entries = nil

	// the surface trie holds spellings as written; katakana variants of
	// readings are only reachable by exact lookup
	surfaces := make(map[string][]uint32)
	for i := range s.entries {
		e := &s.entries[i]
		for _, surface := range e.Surfaces() {
			addUnique(s.exact, language.Fold(surface), e.ID)
			addUnique(surfaces, language.Fold(surface), e.ID)
		}
		for _, reading := range e.Readings {
			addUnique(s.exact, language.ToKatakana(language.Fold(reading)), e.ID)
		}
		for _, glosses := range e.Glosses {
			for _, g := range glosses {
				if key := tokenizer.GlossKey(g); key != "" {
					addUnique(s.gloss, key, e.ID)
				}
			}
		}
		s.indexGrams(e)
	}

	byRank := func(ids []uint32) {
		sort.Slice(ids, func(i, j int) bool {
			fi, fj := s.entries[ids[i]].Frequency, s.entries[ids[j]].Frequency
			if fi != fj {
				return fi > fj
			}
			return ids[i] < ids[j]
		})
	}
	for _, ids := range s.exact {
		byRank(ids)
	}
	for _, ids := range surfaces {
		byRank(ids)
	}
	for _, ids := range s.gloss {
		byRank(ids)
	}

	s.surfaceTrie = buildTrie(surfaces)
	s.glossTrie = buildTrie(s.gloss)
	s.buildVectors()
	return s
}

// indexGrams adds the grams of every surface, every generated conjugation
// and every gloss of e. Entries are visited in id order, so each posting
// list stays sorted by entry id.
func (s *Store) indexGrams(e *dictionary.Entry) {
	tf := make(map[string]uint32)
	count := func(text string) {
		for _, g := range tokenizer.Grams(language.Fold(text)) {
			tf[g]++
		}
	}
	for _, surface := range e.Surfaces() {
		count(surface)
		for _, form := range inflect.Forms(surface, e.POS) {
			count(form)
		}
	}
	for _, glosses := range e.Glosses {
		for _, g := range glosses {
			count(g)
		}
	}
	for gram, freq := range tf {
		s.postings[gram] = append(s.postings[gram], Posting{EntryID: e.ID, Freq: freq})
	}
}

func (s *Store) buildVectors() {
	termFreqs := make([]map[string]int, len(s.entries))
	docFreq := make(map[string]int)
	for i := range s.entries {
		tf := make(map[string]int)
		for _, surface := range s.entries[i].Surfaces() {
			for _, t := range tokenizer.Terms(language.Fold(surface)) {
				tf[t]++
			}
		}
		for t := range tf {
			docFreq[t]++
		}
		termFreqs[i] = tf
	}

	terms := make([]string, 0, len(docFreq))
	for t := range docFreq {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	s.dims = make(map[string]uint32, len(terms))
	s.docFreq = make([]int, len(terms))
	s.support = make([]*roaring.Bitmap, len(terms))
	for i, t := range terms {
		s.dims[t] = uint32(i)
		s.docFreq[i] = docFreq[t]
		s.support[i] = roaring.New()
	}

	n := len(s.entries)
	s.vectors = make([]Vector, n)
	for i, tf := range termFreqs {
		dims := make([]uint32, 0, len(tf))
		for t := range tf {
			dims = append(dims, s.dims[t])
		}
		sort.Slice(dims, func(a, b int) bool { return dims[a] < dims[b] })
		weights := make([]float64, len(dims))
		for j, d := range dims {
			weights[j] = float64(tf[terms[d]]) * idf(n, s.docFreq[d])
			s.support[d].Add(uint32(i))
		}
		s.vectors[i] = newVector(dims, weights, 0)
	}
	for _, bm := range s.support {
		bm.RunOptimize()
	}
}

func buildTrie(m map[string][]uint32) *patricia.Trie {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	trie := patricia.NewTrie()
	for _, k := range keys {
		trie.Insert(patricia.Prefix(k), m[k])
	}
	return trie
}

func addUnique(m map[string][]uint32, key string, id uint32) {
	if key == "" {
		return
	}
	ids := m[key]
	if n := len(ids); n > 0 && ids[n-1] == id {
		return
	}
	m[key] = append(ids, id)
}

// BuildFrom is a convenience for tests and tools: it adds every record of
// each category in category order and builds the store.
func BuildFrom(records map[dictionary.Category][]dictionary.Record) (*Store, error) {
	b := NewBuilder()
	for _, cat := range dictionary.Categories {
		for _, rec := range records[cat] {
			if _, err := b.Add(cat, rec); err != nil {
				return nil, fmt.Errorf("adding %s record: %w", cat, err)
			}
		}
	}
	return b.Build(), nil
}
