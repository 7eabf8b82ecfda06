// Package strategy implements the independent retrieval strategies of a
// full search. Every strategy reads only the immutable index store and its
// own local state, so any number of them can run concurrently.
package strategy

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
)

// Kind identifies a strategy. The declaration order is the precedence used
// when two strategies give an entry the same weighted score.
type Kind uint8

const (
	Exact Kind = iota
	MorphologicalBase
	Prefix
	NGramFuzzy
	VectorSimilarity
)

// Kinds lists every strategy in precedence order.
var Kinds = []Kind{Exact, MorphologicalBase, Prefix, NGramFuzzy, VectorSimilarity}

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case MorphologicalBase:
		return "morph"
	case Prefix:
		return "prefix"
	case NGramFuzzy:
		return "ngram"
	case VectorSimilarity:
		return "vector"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Candidate is one scored hit. Score is in [0, 1]; Form is the text that
// matched, which the ranker compares against the query's script.
type Candidate struct {
	EntryID uint32  `json:"entry_id"`
	Kind    Kind    `json:"strategy"`
	Score   float64 `json:"score"`
	Form    string  `json:"form"`
}

// Sequence is the finite output of one strategy run, ordered by score
// descending, then entry frequency descending, then id. It can be iterated
// any number of times.
type Sequence []Candidate

// All iterates the candidates in order.
func (s Sequence) All() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for _, c := range s {
			if !yield(c) {
				return
			}
		}
	}
}

// IDs returns the entry ids in order.
func (s Sequence) IDs() []uint32 {
	out := make([]uint32, len(s))
	for i, c := range s {
		out[i] = c.EntryID
	}
	return out
}

// Strategy is the contract every retrieval strategy implements.
type Strategy interface {
	Kind() Kind
	Search(ctx context.Context, q *language.Query, store *index.Store) (Sequence, error)
}

// Config carries the thresholds the strategies apply to their own raw
// scores.
type Config struct {
	PrefixMinScore  float64
	PrefixMaxKeys   int
	NGramMinOverlap float64
	VectorThreshold float64
}

// FromConfig extracts strategy thresholds from the search configuration.
func FromConfig(cfg config.SearchConfig) Config {
	return Config{
		PrefixMinScore:  cfg.PrefixMinScore,
		PrefixMaxKeys:   cfg.PrefixMaxKeys,
		NGramMinOverlap: cfg.NGramMinOverlap,
		VectorThreshold: cfg.VectorThreshold,
	}
}

// DefaultConfig returns the thresholds of config.Default.
func DefaultConfig() Config {
	return FromConfig(config.Default().Search)
}

// New returns the strategy of the given kind.
func New(kind Kind, cfg Config) (Strategy, error) {
	switch kind {
	case Exact:
		return exactStrategy{}, nil
	case MorphologicalBase:
		return morphStrategy{cfg: cfg}, nil
	case Prefix:
		return prefixStrategy{cfg: cfg}, nil
	case NGramFuzzy:
		return ngramStrategy{cfg: cfg}, nil
	case VectorSimilarity:
		return vectorStrategy{cfg: cfg}, nil
	}
	return nil, fmt.Errorf("unknown strategy %s", kind)
}

// Set returns one strategy per kind, indexed by Kind.
func Set(cfg Config) []Strategy {
	out := make([]Strategy, len(Kinds))
	for _, k := range Kinds {
		out[k], _ = New(k, cfg)
	}
	return out
}

// Applicable returns the strategies worth running for q, in precedence
// order. It depends only on the scripts of the candidate forms.
func Applicable(q *language.Query) []Kind {
	kinds := []Kind{Exact}
	japanese := q.HasJapanese()
	if japanese && len(q.BaseForms()) > 0 {
		kinds = append(kinds, MorphologicalBase)
	}
	kinds = append(kinds, Prefix, NGramFuzzy)
	if japanese {
		kinds = append(kinds, VectorSimilarity)
	}
	return kinds
}

// collector keeps the best candidate per entry for one strategy run.
type collector struct {
	kind Kind
	best map[uint32]Candidate
}

func newCollector(kind Kind) *collector {
	return &collector{kind: kind, best: make(map[uint32]Candidate)}
}

func (c *collector) add(id uint32, score float64, form string) {
	if cur, ok := c.best[id]; ok && cur.Score >= score {
		return
	}
	c.best[id] = Candidate{EntryID: id, Kind: c.kind, Score: score, Form: form}
}

func (c *collector) sequence(store *index.Store) Sequence {
	out := make(Sequence, 0, len(c.best))
	for _, cand := range c.best {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		fa, fb := store.Frequency(a.EntryID), store.Frequency(b.EntryID)
		if fa != fb {
			return fa > fb
		}
		return a.EntryID < b.EntryID
	})
	return out
}
