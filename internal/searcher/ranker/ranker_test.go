package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary/dictionarytest"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/strategy"
)

var params = Params{FrequencyWeight: 0.01, ScriptBonus: 0.05}

func TestScore(t *testing.T) {
	h := merger.Hit{Score: 0.9, Frequency: 90, Form: "食べる"}
	want := 0.9 + math.Log(91)*0.01 + 0.05
	assert.InDelta(t, want, Score(params, h, language.Kanji), 1e-4)
	assert.InDelta(t, want-0.05, Score(params, h, language.Latin), 1e-4)
	assert.InDelta(t, want-0.05, Score(params, h, language.Unclassified), 1e-4)
}

func TestScoreIsRounded(t *testing.T) {
	s := Score(params, merger.Hit{Score: 1.0 / 3.0, Frequency: 7}, language.Kana)
	assert.Equal(t, math.Round(s*10000)/10000, s)
}

func TestRankOrdering(t *testing.T) {
	store, err := index.BuildFrom(dictionarytest.Records())
	require.NoError(t, err)
	q := language.NewNormalizer(nil).Normalize("漢")

	hits := []merger.Hit{
		{EntryID: dictionarytest.Kanpou, Frequency: 20, Score: 0.375, Kind: strategy.Prefix, Form: "漢方"},
		{EntryID: dictionarytest.KanjiWord, Frequency: 70, Score: 0.375, Kind: strategy.Prefix, Form: "漢字"},
		{EntryID: dictionarytest.KanKanji, Frequency: 65, Score: 1, Kind: strategy.Exact, Form: "漢"},
		{EntryID: 999, Score: 1},
	}
	got := Rank(store, q, hits, params)
	require.Len(t, got, 3)
	assert.Equal(t, dictionarytest.KanKanji, got[0].Entry.ID)
	assert.Equal(t, dictionarytest.KanjiWord, got[1].Entry.ID)
	assert.Equal(t, dictionarytest.Kanpou, got[2].Entry.ID)
	assert.Equal(t, strategy.Exact, got[0].Strategy)
	assert.Equal(t, "漢", got[0].Form)
}

func TestFrequencyBreaksEqualScores(t *testing.T) {
	store, err := index.BuildFrom(dictionarytest.Records())
	require.NoError(t, err)
	q := language.NewNormalizer(nil).Normalize("x")
	hits := []merger.Hit{
		{EntryID: dictionarytest.Kanpou, Score: 0.5},
		{EntryID: dictionarytest.Kanwajiten, Score: 0.5},
	}
	got := Rank(store, q, hits, Params{})
	assert.Equal(t, dictionarytest.Kanpou, got[0].Entry.ID)
}

func TestInterleave(t *testing.T) {
	mk := func(ids ...uint32) []Result {
		out := make([]Result, len(ids))
		for i, id := range ids {
			out[i] = Result{Entry: dictionary.Entry{ID: id}}
		}
		return out
	}
	buckets := map[dictionary.Category][]Result{
		dictionary.Word:     mk(1, 2, 3),
		dictionary.Sentence: mk(10),
		dictionary.Name:     mk(20, 21),
	}
	ids := func(rs []Result) []uint32 {
		out := make([]uint32, len(rs))
		for i, r := range rs {
			out[i] = r.Entry.ID
		}
		return out
	}
	assert.Equal(t, []uint32{1, 20, 10, 2, 21, 3}, ids(Interleave(buckets, 0)))
	assert.Equal(t, []uint32{1, 20, 10, 2}, ids(Interleave(buckets, 4)))
	assert.Empty(t, Interleave(nil, 5))
}
