package pack

import (
	"context"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary/dictionarytest"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
)

func writeFixture(t *testing.T, recs map[dictionary.Category][]dictionary.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict", "dictionary.pack")
	require.NoError(t, Write(path, recs))
	return path
}

func TestWriteAndLoad(t *testing.T) {
	recs := dictionarytest.Records()
	path := writeFixture(t, recs)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, dictionary.Categories, r.Categories())
	assert.EqualValues(t, 15, r.RecordCount())
	for _, c := range dictionary.Categories {
		got, err := r.Load(context.Background(), c)
		require.NoError(t, err, c)
		assert.Equal(t, recs[c], got, c)
	}

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissingCategory(t *testing.T) {
	recs := dictionarytest.Records()
	delete(recs, dictionary.Name)
	r, err := Open(writeFixture(t, recs))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Load(context.Background(), dictionary.Name)
	assert.ErrorIs(t, err, apperrors.ErrCategoryMissing)
}

func TestLoadCorruptSection(t *testing.T) {
	path := writeFixture(t, dictionarytest.Records())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[HeaderSize+3] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Load(context.Background(), dictionary.Word)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResource)
}

func TestOpenBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.pack")
	require.NoError(t, os.WriteFile(path, make([]byte, HeaderSize*2), 0o644))
	_, err := Open(path)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResource)
}

func TestOpenRejectsOversizedTable(t *testing.T) {
	path := writeFixture(t, dictionarytest.Records())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	h := decodeHeader(data[:HeaderSize])
	h.TableSize = 1 << 40
	copy(data, h.encode())
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResource)
}

func TestLoadRejectsOversizedSection(t *testing.T) {
	path := writeFixture(t, dictionarytest.Records())
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// rewrite the table with a huge word section and a valid checksum
	h := decodeHeader(data[:HeaderSize])
	var table []Section
	require.NoError(t, msgpack.Unmarshal(data[h.TableOffset:h.TableOffset+h.TableSize], &table))
	for i := range table {
		if table[i].Category == dictionary.Word {
			table[i].Size = 1 << 40
		}
	}
	tableBytes, err := msgpack.Marshal(table)
	require.NoError(t, err)
	data = append(data[:h.TableOffset], tableBytes...)
	h.TableSize = int64(len(tableBytes))
	h.TableCRC = crc32.ChecksumIEEE(tableBytes)
	copy(data, h.encode())
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Load(context.Background(), dictionary.Word)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResource)
	_, err = r.Load(context.Background(), dictionary.Kanji)
	assert.NoError(t, err)
}

func TestWithin(t *testing.T) {
	tests := []struct {
		offset, size int64
		want         bool
	}{
		{0, 100, true},
		{60, 40, true},
		{100, 0, true},
		{60, 41, false},
		{101, 0, false},
		{-1, 10, false},
		{10, -1, false},
		{1, 1<<63 - 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, within(tt.offset, tt.size, 100), "offset %d size %d", tt.offset, tt.size)
	}
}

func TestLoadCancelled(t *testing.T) {
	r, err := Open(writeFixture(t, dictionarytest.Records()))
	require.NoError(t, err)
	defer r.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Load(ctx, dictionary.Word)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteEmpty(t *testing.T) {
	assert.Error(t, Write(filepath.Join(t.TempDir(), "x.pack"), nil))
}
