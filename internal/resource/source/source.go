// Package source opens the dictionary source named by the configuration.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource/pack"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/postgres"
)

// Source is an open provider together with whatever must be closed after
// the index is built. DB is set for the SQL backends.
type Source struct {
	resource.Provider
	io.Closer
	DB      *sql.DB
	Dialect resource.Dialect
}

// Open opens cfg.Resources.Source.
func Open(ctx context.Context, cfg *config.Config) (*Source, error) {
	logger := slog.Default().With("component", "resource-source", "source", cfg.Resources.Source)
	switch cfg.Resources.Source {
	case "pack":
		r, err := pack.Open(cfg.Resources.PackPath)
		if err != nil {
			return nil, err
		}
		logger.Info("dictionary pack opened", "path", cfg.Resources.PackPath, "records", r.RecordCount())
		return &Source{Provider: r, Closer: r}, nil
	case "postgres":
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return openSQL(client.DB, resource.Postgres, cfg.Resources.Table, client)
	case "sqlite":
		db, err := OpenSQLite(cfg.Resources.SQLitePath)
		if err != nil {
			return nil, err
		}
		return openSQL(db, resource.SQLite, cfg.Resources.Table, db)
	default:
		return nil, fmt.Errorf("unknown resource source %q", cfg.Resources.Source)
	}
}

// OpenSQLite opens a SQLite database file. A single connection keeps
// writes and an in-memory database consistent.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func openSQL(db *sql.DB, dialect resource.Dialect, table string, closer io.Closer) (*Source, error) {
	p, err := resource.NewSQLProvider(db, dialect, table)
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &Source{Provider: p, Closer: closer, DB: db, Dialect: dialect}, nil
}

// SQL returns the SQL provider of s, or nil for a pack source.
func (s *Source) SQL() *resource.SQLProvider {
	p, _ := s.Provider.(*resource.SQLProvider)
	return p
}
