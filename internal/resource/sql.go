package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/resilience"
)

// Dialect covers the differences between the SQL backends.
type Dialect uint8

const (
	Postgres Dialect = iota
	SQLite
)

// Placeholder is the bind parameter for the n-th argument, counting from 1.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLProvider reads entries from a table shaped like
//
//	category TEXT, source_id TEXT, kanji TEXT, readings TEXT, glosses TEXT,
//	frequency INTEGER, jlpt INTEGER, pos TEXT
//
// where kanji, readings and pos hold JSON arrays and glosses a JSON object
// of locale to array.
type SQLProvider struct {
	db      *sql.DB
	dialect Dialect
	table   string
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

func NewSQLProvider(db *sql.DB, dialect Dialect, table string) (*SQLProvider, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q: %w", table, apperrors.ErrInvalidInput)
	}
	return &SQLProvider{
		db:      db,
		dialect: dialect,
		table:   table,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
		},
		logger: slog.Default().With("component", "sql-provider"),
	}, nil
}

// Schema returns the DDL for the entries table.
func (p *SQLProvider) Schema() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	category  TEXT NOT NULL,
	source_id TEXT NOT NULL,
	kanji     TEXT NOT NULL DEFAULT '[]',
	readings  TEXT NOT NULL DEFAULT '[]',
	glosses   TEXT NOT NULL DEFAULT '{}',
	frequency INTEGER NOT NULL DEFAULT 0,
	jlpt      INTEGER NOT NULL DEFAULT 0,
	pos       TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (category, source_id)
)`, p.table)
}

// Load reads one category ordered by source id. Transient query failures are
// retried; an empty category is missing.
func (p *SQLProvider) Load(ctx context.Context, category dictionary.Category) ([]dictionary.Record, error) {
	var records []dictionary.Record
	err := resilience.Retry(ctx, "load "+category.String(), p.retry, func() error {
		var err error
		records, err = p.query(ctx, category)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s entries: %w", category, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no rows in %s: %w", category, p.table, apperrors.ErrCategoryMissing)
	}
	p.logger.Info("category loaded", "category", category.String(), "records", len(records))
	return records, nil
}

func (p *SQLProvider) query(ctx context.Context, category dictionary.Category) ([]dictionary.Record, error) {
	q := fmt.Sprintf(
		`SELECT source_id, kanji, readings, glosses, frequency, jlpt, pos FROM %s WHERE category = %s ORDER BY source_id`,
		p.table, p.dialect.Placeholder(1),
	)
	rows, err := p.db.QueryContext(ctx, q, category.String())
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []dictionary.Record
	for rows.Next() {
		var (
			rec                           dictionary.Record
			kanji, readings, glosses, pos string
		)
		if err := rows.Scan(&rec.SourceID, &kanji, &readings, &glosses, &rec.Frequency, &rec.JLPT, &pos); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if err := decodeColumns(&rec, kanji, readings, glosses, pos); err != nil {
			return nil, resilience.Permanent(fmt.Errorf("entry %s: %w: %w", rec.SourceID, apperrors.ErrMalformedResource, err))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return out, nil
}

func decodeColumns(rec *dictionary.Record, kanji, readings, glosses, pos string) error {
	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"kanji", kanji, &rec.Kanji},
		{"readings", readings, &rec.Readings},
		{"glosses", glosses, &rec.Glosses},
		{"pos", pos, &rec.POS},
	} {
		if col.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return fmt.Errorf("decoding %s column: %w", col.name, err)
		}
	}
	if len(rec.Kanji) == 0 {
		rec.Kanji = nil
	}
	if len(rec.Readings) == 0 {
		rec.Readings = nil
	}
	if len(rec.POS) == 0 {
		rec.POS = nil
	}
	if len(rec.Glosses) == 0 {
		rec.Glosses = nil
	}
	return nil
}

// Insert writes records of one category, replacing rows with the same key.
// It is used to seed the table from a pack file or fixtures.
func (p *SQLProvider) Insert(ctx context.Context, category dictionary.Category, records []dictionary.Record) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ph := make([]any, 8)
	for i := range ph {
		ph[i] = p.dialect.Placeholder(i + 1)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (category, source_id, kanji, readings, glosses, frequency, jlpt, pos)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
		 ON CONFLICT (category, source_id) DO UPDATE SET
		   kanji = excluded.kanji, readings = excluded.readings, glosses = excluded.glosses,
		   frequency = excluded.frequency, jlpt = excluded.jlpt, pos = excluded.pos`,
		append([]any{p.table}, ph...)...,
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		kanji, _ := json.Marshal(nonNil(rec.Kanji))
		readings, _ := json.Marshal(nonNil(rec.Readings))
		pos, _ := json.Marshal(nonNil(rec.POS))
		glosses, err := json.Marshal(rec.Glosses)
		if err != nil {
			return fmt.Errorf("encoding glosses of %s: %w", rec.SourceID, err)
		}
		if rec.Glosses == nil {
			glosses = []byte("{}")
		}
		if _, err := stmt.ExecContext(ctx, category.String(), rec.SourceID,
			string(kanji), string(readings), string(glosses), rec.Frequency, rec.JLPT, string(pos)); err != nil {
			return fmt.Errorf("inserting %s: %w", rec.SourceID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
