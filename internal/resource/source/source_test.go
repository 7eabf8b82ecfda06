package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary/dictionarytest"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource/pack"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
)

func TestOpenPack(t *testing.T) {
	cfg := config.Default()
	cfg.Resources.PackPath = filepath.Join(t.TempDir(), "dict.pack")
	require.NoError(t, pack.Write(cfg.Resources.PackPath, dictionarytest.Records()))

	src, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer src.Close()
	assert.Nil(t, src.SQL())
	recs, err := src.Load(context.Background(), dictionary.Name)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Resources.Source = "sqlite"
	cfg.Resources.SQLitePath = filepath.Join(t.TempDir(), "dict.db")

	src, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer src.Close()
	require.NotNil(t, src.SQL())
	assert.Equal(t, resource.SQLite, src.Dialect)

	_, err = src.DB.ExecContext(ctx, src.SQL().Schema())
	require.NoError(t, err)
	for category, recs := range dictionarytest.Records() {
		require.NoError(t, src.SQL().Insert(ctx, category, recs))
	}
	recs, err := src.Load(ctx, dictionary.Sentence)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestOpenMissingPack(t *testing.T) {
	cfg := config.Default()
	cfg.Resources.PackPath = filepath.Join(t.TempDir(), "absent.pack")
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOpenUnknownSource(t *testing.T) {
	cfg := config.Default()
	cfg.Resources.Source = "csv"
	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown resource source")
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	packPath := filepath.Join(dir, "dict.pack")

	n, err := Export(ctx, resource.Static(dictionarytest.Records()), packPath)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	r, err := pack.Open(packPath)
	require.NoError(t, err)
	defer r.Close()

	cfg := config.Default()
	cfg.Resources.Source = "sqlite"
	cfg.Resources.SQLitePath = filepath.Join(dir, "dict.db")
	dst, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer dst.Close()

	n, err = Import(ctx, r, dst)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	names, err := dst.Load(ctx, dictionary.Name)
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestExportMissingCategory(t *testing.T) {
	records := dictionarytest.Records()
	delete(records, dictionary.Sentence)
	_, err := Export(context.Background(), resource.Static(records), filepath.Join(t.TempDir(), "dict.pack"))
	assert.ErrorIs(t, err, apperrors.ErrCategoryMissing)
}

func TestImportRequiresSQL(t *testing.T) {
	_, err := Import(context.Background(), resource.Static(dictionarytest.Records()), &Source{})
	assert.ErrorContains(t, err, "SQL source")
}
