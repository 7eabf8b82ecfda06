// Package resource defines where dictionary entries come from at startup
// and provides the SQL and in-memory sources.
package resource

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
)

// Provider enumerates the records of one category. A category the source
// does not have must be reported as apperrors.ErrCategoryMissing.
type Provider interface {
	Load(ctx context.Context, category dictionary.Category) ([]dictionary.Record, error)
}

// Static serves records from memory.
type Static map[dictionary.Category][]dictionary.Record

func (s Static) Load(ctx context.Context, category dictionary.Category) ([]dictionary.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs, ok := s[category]
	if !ok {
		return nil, fmt.Errorf("%s: %w", category, apperrors.ErrCategoryMissing)
	}
	return recs, nil
}
