package pack

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
)

// MagicBytes identifies a dictionary pack file.
const (
	MagicBytes    uint32 = 0x4453504B
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
)

// Header is the fixed-size header at the start of every pack file.
type Header struct {
	Magic        uint32
	Version      uint32
	SectionCount uint32
	RecordCount  uint32
	CreatedAt    int64
	TableOffset  int64
	TableSize    int64
	TableCRC     uint32
}

// Section locates one category's records inside the file.
type Section struct {
	Category dictionary.Category `msgpack:"c"`
	Offset   int64               `msgpack:"o"`
	Size     int64               `msgpack:"s"`
	Count    int                 `msgpack:"n"`
	CRC      uint32              `msgpack:"x"`
}

func (h Header) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.SectionCount)
	binary.LittleEndian.PutUint32(b[12:16], h.RecordCount)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.TableOffset))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.TableSize))
	binary.LittleEndian.PutUint32(b[40:44], h.TableCRC)
	return b
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:        binary.LittleEndian.Uint32(b[0:4]),
		Version:      binary.LittleEndian.Uint32(b[4:8]),
		SectionCount: binary.LittleEndian.Uint32(b[8:12]),
		RecordCount:  binary.LittleEndian.Uint32(b[12:16]),
		CreatedAt:    int64(binary.LittleEndian.Uint64(b[16:24])),
		TableOffset:  int64(binary.LittleEndian.Uint64(b[24:32])),
		TableSize:    int64(binary.LittleEndian.Uint64(b[32:40])),
		TableCRC:     binary.LittleEndian.Uint32(b[40:44]),
	}
}

// Write atomically creates path holding one section per category present in
// records. It writes to a .tmp file first and renames on success.
func Write(path string, records map[dictionary.Category][]dictionary.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("cannot write empty pack")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating pack directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp pack file: %w", err)
	}
	defer f.Close()

	header := Header{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		CreatedAt: time.Now().Unix(),
	}
	if _, err := f.Write(header.encode()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	categories := make([]dictionary.Category, 0, len(records))
	for c := range records {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	table := make([]Section, 0, len(categories))
	for _, c := range categories {
		data, err := msgpack.Marshal(records[c])
		if err != nil {
			return fmt.Errorf("encoding %s section: %w", c, err)
		}
		offset, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return fmt.Errorf("locating %s section: %w", c, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing %s section: %w", c, err)
		}
		table = append(table, Section{
			Category: c,
			Offset:   offset,
			Size:     int64(len(data)),
			Count:    len(records[c]),
			CRC:      crc32.ChecksumIEEE(data),
		})
		header.RecordCount += uint32(len(records[c]))
	}

	tableData, err := msgpack.Marshal(table)
	if err != nil {
		return fmt.Errorf("encoding section table: %w", err)
	}
	tableOffset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locating section table: %w", err)
	}
	if _, err := f.Write(tableData); err != nil {
		return fmt.Errorf("writing section table: %w", err)
	}

	header.SectionCount = uint32(len(table))
	header.TableOffset = tableOffset
	header.TableSize = int64(len(tableData))
	header.TableCRC = crc32.ChecksumIEEE(tableData)
	if _, err := f.WriteAt(header.encode(), 0); err != nil {
		return fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing pack file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing pack file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming pack file: %w", err)
	}
	return nil
}
