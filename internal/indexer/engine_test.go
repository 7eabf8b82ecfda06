package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary/dictionarytest"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
)

func TestBuild(t *testing.T) {
	store, err := NewEngine(resource.Static(dictionarytest.Records()), nil).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, store.Len())

	e, ok := store.Entry(dictionarytest.Tanaka)
	require.True(t, ok)
	assert.Equal(t, dictionary.Name, e.Category)
	assert.Equal(t, "n-tanaka", e.SourceID)
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := NewEngine(resource.Static(dictionarytest.Records()), nil).Build(context.Background())
	require.NoError(t, err)
	b, err := NewEngine(resource.Static(dictionarytest.Records()), nil).Build(context.Background())
	require.NoError(t, err)
	for id := uint32(0); id < uint32(a.Len()); id++ {
		ea, _ := a.Entry(id)
		eb, _ := b.Entry(id)
		assert.Equal(t, ea.SourceID, eb.SourceID)
		assert.Equal(t, a.Vector(id), b.Vector(id))
	}
}

func TestBuildMissingCategoryIsFatal(t *testing.T) {
	recs := dictionarytest.Records()
	delete(recs, dictionary.Kanji)
	_, err := NewEngine(resource.Static(recs), nil).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCategoryMissing)
	assert.True(t, apperrors.IsFatal(err))
}

func TestBuildEmptyCategoryIsMissing(t *testing.T) {
	recs := dictionarytest.Records()
	recs[dictionary.Name] = nil
	_, err := NewEngine(resource.Static(recs), nil).Build(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCategoryMissing)
}

func TestBuildMalformedRecord(t *testing.T) {
	recs := dictionarytest.Records()
	recs[dictionary.Sentence] = append(recs[dictionary.Sentence], dictionary.Record{SourceID: "blank"})
	_, err := NewEngine(resource.Static(recs), nil).Build(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrMalformedResource)
}

type failingProvider struct{ err error }

func (f failingProvider) Load(context.Context, dictionary.Category) ([]dictionary.Record, error) {
	return nil, f.err
}

func TestBuildProviderError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewEngine(failingProvider{boom}, nil).Build(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, apperrors.IsFatal(err))
}
