package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
)

// SnapshotStore persists aggregated stats so that they survive restarts of
// the analytics service. Snapshots live in a table
//
//	analytics_snapshots (id, data TEXT, captured_at TIMESTAMP)
//
// created by Migrate.
type SnapshotStore struct {
	db      *sql.DB
	dialect resource.Dialect
	logger  *slog.Logger
}

func NewSnapshotStore(db *sql.DB, dialect resource.Dialect) *SnapshotStore {
	return &SnapshotStore{
		db:      db,
		dialect: dialect,
		logger:  slog.Default().With("component", "analytics-store"),
	}
}

func (s *SnapshotStore) Migrate(ctx context.Context) error {
	id := "BIGSERIAL PRIMARY KEY"
	if s.dialect == resource.SQLite {
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS analytics_snapshots (
	id          %s,
	data        TEXT NOT NULL,
	captured_at TIMESTAMP NOT NULL
)`, id))
	if err != nil {
		return fmt.Errorf("creating analytics_snapshots: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Save(ctx context.Context, stats AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO analytics_snapshots (data, captured_at) VALUES (%s, %s)`,
			s.dialect.Placeholder(1), s.dialect.Placeholder(2)),
		string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Info("analytics snapshot saved", "total_searches", stats.TotalSearches)
	return nil
}

// Latest returns the most recent snapshot, or nil when none was saved yet.
func (s *SnapshotStore) Latest(ctx context.Context) (*AggregatedStats, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats AggregatedStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// List returns up to limit snapshots, newest first. Corrupt rows are
// skipped.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]AggregatedStats, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT data FROM analytics_snapshots ORDER BY id DESC LIMIT %s`, s.dialect.Placeholder(1)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]AggregatedStats, 0, limit)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var stats AggregatedStats
		if err := json.Unmarshal([]byte(data), &stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, stats)
	}
	return snapshots, rows.Err()
}

// Run saves a snapshot of agg every interval and once more when ctx ends.
// It blocks until then.
func (s *SnapshotStore) Run(ctx context.Context, agg *Aggregator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Info("periodic snapshot started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			if err := s.Save(ctx, agg.Stats()); err != nil {
				s.logger.Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Save(shutdownCtx, agg.Stats()); err != nil {
				s.logger.Error("final snapshot failed", "error", err)
			}
			return
		}
	}
}
