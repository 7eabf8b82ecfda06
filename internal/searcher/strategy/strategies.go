package strategy

import (
	"context"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
)

// ctxCheckEvery bounds how many candidates a scoring loop handles between
// cancellation checks.
const ctxCheckEvery = 256

type exactStrategy struct{}

func (exactStrategy) Kind() Kind { return Exact }

// Search looks every form up in the surface map and, for Latin forms, in
// the gloss map. Every hit scores 1.
func (exactStrategy) Search(ctx context.Context, q *language.Query, store *index.Store) (Sequence, error) {
	c := newCollector(Exact)
	for _, f := range q.Forms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, id := range store.Exact(f.Text) {
			c.add(id, 1, f.Text)
		}
		if f.Script.Dominant() == language.Latin {
			if key := tokenizer.GlossKey(f.Text); key != "" {
				for _, id := range store.Gloss(key) {
					c.add(id, 1, f.Text)
				}
			}
		}
	}
	return c.sequence(store), nil
}

type prefixStrategy struct{ cfg Config }

func (prefixStrategy) Kind() Kind { return Prefix }

// Search scores keys that extend a form by len(form)/len(key). Keys equal
// to the form are left to the exact strategy.
func (s prefixStrategy) Search(ctx context.Context, q *language.Query, store *index.Store) (Sequence, error) {
	c := newCollector(Prefix)
	for _, f := range q.Forms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prefixScore(c, store, f, s.cfg)
	}
	return c.sequence(store), nil
}

// prefixScore keeps the PrefixMaxKeys shortest extensions of f. The score
// falls with key length, so the cap only ever drops the weakest keys.
func prefixScore(c *collector, store *index.Store, f language.Form, cfg Config) {
	base := f.Text
	var matches []index.PrefixMatch
	if f.Script.Dominant() == language.Latin {
		base = tokenizer.GlossKey(f.Text)
		matches = store.GlossPrefixMatches(base, cfg.PrefixMaxKeys, index.ByLength)
	} else {
		matches = store.PrefixMatches(base, cfg.PrefixMaxKeys, index.ByLength)
	}
	n := utf8.RuneCountInString(base)
	for _, m := range matches {
		if m.Key == base {
			continue
		}
		score := float64(n) / float64(utf8.RuneCountInString(m.Key))
		if score < cfg.PrefixMinScore {
			continue
		}
		for _, id := range m.IDs {
			c.add(id, score, m.Key)
		}
	}
}

type ngramStrategy struct{ cfg Config }

func (ngramStrategy) Kind() Kind { return NGramFuzzy }

// Search counts, per entry, how many of a form's distinct grams the entry
// contains and scores the count against the form's gram count.
func (s ngramStrategy) Search(ctx context.Context, q *language.Query, store *index.Store) (Sequence, error) {
	c := newCollector(NGramFuzzy)
	for _, f := range q.Forms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		grams := tokenizer.Distinct(tokenizer.Grams(f.Text))
		if len(grams) == 0 {
			continue
		}
		overlap := make(map[uint32]int)
		for _, g := range grams {
			for p := range store.Postings(g).All() {
				overlap[p.EntryID]++
			}
		}
		total := float64(len(grams))
		for id, n := range overlap {
			score := float64(n) / total
			if score < s.cfg.NGramMinOverlap {
				continue
			}
			c.add(id, score, f.Text)
		}
	}
	return c.sequence(store), nil
}

type vectorStrategy struct{ cfg Config }

func (vectorStrategy) Kind() Kind { return VectorSimilarity }

// Search compares the term vector of each Japanese form with every entry
// vector sharing a dimension with it.
func (s vectorStrategy) Search(ctx context.Context, q *language.Query, store *index.Store) (Sequence, error) {
	c := newCollector(VectorSimilarity)
	for _, f := range q.Forms {
		if !f.Script.IsJapanese() {
			continue
		}
		qv := store.QueryVector(tokenizer.Terms(f.Text))
		if qv.Empty() {
			continue
		}
		seen := 0
		for id := range store.VectorCandidates(qv) {
			seen++
			if seen%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			sim := index.Cosine(qv, store.Vector(id))
			if sim <= s.cfg.VectorThreshold {
				continue
			}
			c.add(id, sim, f.Text)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.sequence(store), nil
}

type morphStrategy struct{ cfg Config }

func (morphStrategy) Kind() Kind { return MorphologicalBase }

// Search looks up the dictionary forms found by morphological analysis:
// exact hits score 1, longer keys are scored like prefix hits.
func (s morphStrategy) Search(ctx context.Context, q *language.Query, store *index.Store) (Sequence, error) {
	c := newCollector(MorphologicalBase)
	for _, base := range q.BaseForms() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, id := range store.Exact(base) {
			c.add(id, 1, base)
		}
		form := language.Form{Text: base, Script: language.DetectScript(base)}
		prefixScore(c, store, form, s.cfg)
	}
	return c.sequence(store), nil
}
