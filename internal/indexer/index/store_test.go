package index_test

import (
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary/dictionarytest"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/tokenizer"
)

func fixtureStore(t testing.TB) *index.Store {
	t.Helper()
	s, err := index.BuildFrom(dictionarytest.Records())
	require.NoError(t, err)
	return s
}

func TestBuildAssignsDenseIDs(t *testing.T) {
	s := fixtureStore(t)
	require.Equal(t, 15, s.Len())
	for id := uint32(0); id < uint32(s.Len()); id++ {
		e, ok := s.Entry(id)
		require.True(t, ok)
		assert.Equal(t, id, e.ID)
	}
	e, _ := s.Entry(dictionarytest.KanKanji)
	assert.Equal(t, dictionary.Kanji, e.Category)
	_, ok := s.Entry(999)
	assert.False(t, ok)

	st := s.Stats()
	assert.Equal(t, 9, st.ByCategory[dictionary.Word])
	assert.Equal(t, 2, st.ByCategory[dictionary.Sentence])
}

func TestBuildRejectsMalformedRecord(t *testing.T) {
	recs := dictionarytest.Records()
	recs[dictionary.Name] = append(recs[dictionary.Name], dictionary.Record{SourceID: "empty"})
	_, err := index.BuildFrom(recs)
	assert.Error(t, err)
}

func TestExact(t *testing.T) {
	s := fixtureStore(t)
	assert.Equal(t, []uint32{dictionarytest.Taberu}, s.Exact("食べる"))
	assert.Equal(t, []uint32{dictionarytest.Taberu}, s.Exact("たべる"))
	assert.Empty(t, s.Exact("たべまず"))
}

func TestExactKatakanaReading(t *testing.T) {
	s := fixtureStore(t)
	assert.Equal(t, []uint32{dictionarytest.Taberu}, s.Exact("タベル"))
	assert.Equal(t, []uint32{dictionarytest.ShokuKanji}, s.Exact("ショク"))
	assert.Equal(t, []uint32{dictionarytest.Ramen}, s.Exact("ラーメン"))
	// suggestions and prefix scoring only see spellings as written
	assert.Empty(t, s.PrefixMatches("タベ", 0, index.ByLength))
}

func TestGloss(t *testing.T) {
	s := fixtureStore(t)
	assert.Equal(t, []uint32{dictionarytest.Taberu}, s.Gloss(tokenizer.GlossKey("to eat")))
	// "eat" is both a gloss of 食 and the key of "to eat"; higher frequency first
	assert.Equal(t, []uint32{dictionarytest.Taberu, dictionarytest.ShokuKanji}, s.Gloss("eat"))
}

func matchKeys(matches []index.PrefixMatch) []string {
	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = m.Key
	}
	return keys
}

func TestPrefixMatches(t *testing.T) {
	s := fixtureStore(t)
	assert.Equal(t, []string{"漢", "漢字", "漢方", "漢和辞典"}, matchKeys(s.PrefixMatches("漢", 0, index.ByLength)))
	assert.Equal(t, []string{"漢字", "漢", "漢方", "漢和辞典"}, matchKeys(s.PrefixMatches("漢", 0, index.ByFrequency)))

	assert.Equal(t, []string{"漢", "漢字"}, matchKeys(s.PrefixMatches("漢", 2, index.ByLength)))
	assert.Empty(t, s.PrefixMatches("存在しない", 0, index.ByLength))
	assert.Empty(t, s.PrefixMatches("", 0, index.ByLength))

	want := []string{
		tokenizer.GlossKey("Chinese characters"),
		tokenizer.GlossKey("China"),
		tokenizer.GlossKey("Chinese-style noodles"),
	}
	assert.Equal(t, want, matchKeys(s.GlossPrefixMatches("chin", 0, index.ByFrequency)))
}

func TestPrefixMatchesWalkPastCap(t *testing.T) {
	s, err := index.BuildFrom(dictionarytest.Crowded())
	require.NoError(t, err)

	tests := []struct {
		name  string
		order index.Order
	}{
		{"by frequency", index.ByFrequency},
		{"by length", index.ByLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.PrefixMatches("か", 5, tc.order)
			require.Len(t, got, 5)
			assert.Equal(t, "かれ", got[0].Key)
		})
	}

	gloss := s.GlossPrefixMatches("ca", 5, index.ByFrequency)
	require.Len(t, gloss, 5)
	assert.Equal(t, "cat", gloss[0].Key)
}

func TestPostingsOrderedByEntryID(t *testing.T) {
	s := fixtureStore(t)
	pl := s.Postings("たべ")
	require.NotEmpty(t, pl)
	ids := make([]uint32, 0, len(pl))
	for p := range pl.All() {
		ids = append(ids, p.EntryID)
	}
	assert.True(t, slices.IsSorted(ids))
	assert.Contains(t, ids, dictionarytest.Taberu)
	assert.Contains(t, ids, dictionarytest.BreadSent)

	// restartable
	var again int
	for range pl.All() {
		again++
	}
	assert.Equal(t, len(ids), again)
}

func TestConjugationsAreIndexed(t *testing.T) {
	s := fixtureStore(t)
	var found bool
	for p := range s.Postings("べま").All() {
		if p.EntryID == dictionarytest.Taberu {
			found = true
		}
	}
	assert.True(t, found, "たべます should be indexed for 食べる")
}

func TestVectorSelfSimilarity(t *testing.T) {
	s := fixtureStore(t)
	for id := uint32(0); id < uint32(s.Len()); id++ {
		v := s.Vector(id)
		assert.InDelta(t, 1.0, index.Cosine(v, v), 1e-9, "entry %d", id)
	}
}

func TestVectorSymmetry(t *testing.T) {
	s := fixtureStore(t)
	a, b := s.Vector(dictionarytest.Taberu), s.Vector(dictionarytest.Tabemono)
	assert.Equal(t, index.Cosine(a, b), index.Cosine(b, a))
	assert.Greater(t, index.Cosine(a, b), 0.0)
	assert.Less(t, index.Cosine(a, b), 1.0)
}

func TestQueryVectorMatchesIndexWeighting(t *testing.T) {
	s := fixtureStore(t)
	e, _ := s.Entry(dictionarytest.KanjiWord)
	var terms []string
	for _, surface := range e.Surfaces() {
		terms = append(terms, tokenizer.Terms(surface)...)
	}
	q := s.QueryVector(terms)
	assert.InDelta(t, 1.0, index.Cosine(q, s.Vector(dictionarytest.KanjiWord)), 1e-9)

	withUnknown := s.QueryVector(append(terms, "存在"))
	assert.Less(t, index.Cosine(withUnknown, s.Vector(dictionarytest.KanjiWord)), 1.0)
	assert.False(t, math.IsNaN(index.Cosine(s.QueryVector(nil), q)))
}

func TestVectorCandidates(t *testing.T) {
	s := fixtureStore(t)
	q := s.QueryVector(tokenizer.Terms("食べ"))
	var ids []uint32
	for id := range s.VectorCandidates(q) {
		ids = append(ids, id)
	}
	assert.True(t, slices.IsSorted(ids))
	assert.Contains(t, ids, dictionarytest.Taberu)
	assert.Contains(t, ids, dictionarytest.Tabemono)
	assert.NotContains(t, ids, dictionarytest.Tanaka)

	var none int
	for range s.VectorCandidates(s.QueryVector([]string{"zz"})) {
		none++
	}
	assert.Zero(t, none)
}

func TestConcurrentReaders(t *testing.T) {
	s := fixtureStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Exact("漢字")
				_ = s.PrefixMatches("た", 0, index.ByFrequency)
				_ = s.Postings("たべ")
				for range s.VectorCandidates(s.Vector(dictionarytest.Nomu)) {
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkBuild(b *testing.B) {
	recs := dictionarytest.Records()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := index.BuildFrom(recs); err != nil {
			b.Fatal(err)
		}
	}
}
