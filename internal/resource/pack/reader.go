// Package pack reads and writes the single-file dictionary pack: a fixed
// header, one msgpack section per category and a checksummed section table.
package pack

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
)

// Reader serves category sections of an open pack file. It is safe for
// concurrent Load calls.
type Reader struct {
	file     *os.File
	filePath string
	fileSize int64
	header   Header
	sections map[dictionary.Category]Section
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pack file: %w", err)
	}
	r, err := newReader(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(f *os.File, path string) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pack file: %w", err)
	}
	fileSize := info.Size()

	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("reading pack header: %w: %w", apperrors.ErrMalformedResource, err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("invalid pack file: bad magic bytes %x: %w", header.Magic, apperrors.ErrMalformedResource)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported pack version %d: %w", header.Version, apperrors.ErrMalformedResource)
	}

	if !within(header.TableOffset, header.TableSize, fileSize) {
		return nil, fmt.Errorf("section table [%d,+%d) outside %d byte file: %w",
			header.TableOffset, header.TableSize, fileSize, apperrors.ErrMalformedResource)
	}
	tableBytes := make([]byte, header.TableSize)
	if _, err := f.ReadAt(tableBytes, header.TableOffset); err != nil {
		return nil, fmt.Errorf("reading section table: %w: %w", apperrors.ErrMalformedResource, err)
	}
	if crc32.ChecksumIEEE(tableBytes) != header.TableCRC {
		return nil, fmt.Errorf("section table checksum mismatch: %w", apperrors.ErrMalformedResource)
	}
	var table []Section
	if err := msgpack.Unmarshal(tableBytes, &table); err != nil {
		return nil, fmt.Errorf("parsing section table: %w: %w", apperrors.ErrMalformedResource, err)
	}
	sections := make(map[dictionary.Category]Section, len(table))
	for _, s := range table {
		sections[s.Category] = s
	}
	return &Reader{
		file:     f,
		filePath: path,
		fileSize: fileSize,
		header:   header,
		sections: sections,
	}, nil
}

// Load decodes the records of one category. A category without a section
// reports ErrCategoryMissing; a corrupt section reports ErrMalformedResource.
func (r *Reader) Load(ctx context.Context, category dictionary.Category) ([]dictionary.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := r.sections[category]
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", category, r.filePath, apperrors.ErrCategoryMissing)
	}
	if !within(s.Offset, s.Size, r.fileSize) {
		return nil, fmt.Errorf("%s section [%d,+%d) outside %d byte file: %w",
			category, s.Offset, s.Size, r.fileSize, apperrors.ErrMalformedResource)
	}
	data := make([]byte, s.Size)
	if _, err := r.file.ReadAt(data, s.Offset); err != nil {
		return nil, fmt.Errorf("reading %s section: %w: %w", category, apperrors.ErrMalformedResource, err)
	}
	if crc32.ChecksumIEEE(data) != s.CRC {
		return nil, fmt.Errorf("%s section checksum mismatch: %w", category, apperrors.ErrMalformedResource)
	}
	var records []dictionary.Record
	if err := msgpack.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s section: %w: %w", category, apperrors.ErrMalformedResource, err)
	}
	if len(records) != s.Count {
		return nil, fmt.Errorf("%s section holds %d records, table says %d: %w", category, len(records), s.Count, apperrors.ErrMalformedResource)
	}
	return records, nil
}

// within reports whether size bytes at offset lie inside a file of
// fileSize bytes.
func within(offset, size, fileSize int64) bool {
	return offset >= 0 && size >= 0 && offset <= fileSize && size <= fileSize-offset
}

// Categories lists the categories present in the file.
func (r *Reader) Categories() []dictionary.Category {
	var out []dictionary.Category
	for _, c := range dictionary.Categories {
		if _, ok := r.sections[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Reader) RecordCount() uint32 {
	return r.header.RecordCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}
