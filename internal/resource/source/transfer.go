package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource/pack"
)

// Export reads every category from p and writes them to a pack file at path.
// It fails if any category is missing so a pack always holds all four.
func Export(ctx context.Context, p resource.Provider, path string) (int, error) {
	records := make(map[dictionary.Category][]dictionary.Record, len(dictionary.Categories))
	total := 0
	for _, c := range dictionary.Categories {
		recs, err := p.Load(ctx, c)
		if err != nil {
			return 0, fmt.Errorf("exporting %s: %w", c, err)
		}
		records[c] = recs
		total += len(recs)
	}
	if err := pack.Write(path, records); err != nil {
		return 0, err
	}
	slog.Default().With("component", "dictpack").Info("pack written", "path", path, "records", total)
	return total, nil
}

// Import copies every category of p into the SQL table of dst, creating the
// table first.
func Import(ctx context.Context, p resource.Provider, dst *Source) (int, error) {
	target := dst.SQL()
	if target == nil {
		return 0, fmt.Errorf("import target must be a SQL source")
	}
	if _, err := dst.DB.ExecContext(ctx, target.Schema()); err != nil {
		return 0, fmt.Errorf("creating entries table: %w", err)
	}
	total := 0
	for _, c := range dictionary.Categories {
		recs, err := p.Load(ctx, c)
		if err != nil {
			return total, fmt.Errorf("importing %s: %w", c, err)
		}
		if err := target.Insert(ctx, c, recs); err != nil {
			return total, err
		}
		total += len(recs)
	}
	slog.Default().With("component", "dictpack").Info("pack imported", "records", total)
	return total, nil
}
