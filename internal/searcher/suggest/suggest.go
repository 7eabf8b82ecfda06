// Package suggest implements the autocomplete path: exact and prefix
// lookups only, under a small time budget.
package suggest

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/resilience"
)

type Suggester struct {
	store      *index.Store
	normalizer *language.Normalizer
	cfg        config.SuggestConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New returns a Suggester over store. m may be nil.
func New(store *index.Store, cfg config.SuggestConfig, m *metrics.Metrics) *Suggester {
	return &Suggester{
		store:      store,
		normalizer: language.NewNormalizer(nil),
		cfg:        cfg,
		metrics:    m,
		logger:     slog.Default().With("component", "suggester"),
	}
}

type suggestion struct {
	text string
	freq int
}

// Complete returns up to limit completions of prefix ordered by frequency
// descending, then text. It never fails: bad input, an exhausted budget or
// a cancelled ctx all yield an empty list.
func (s *Suggester) Complete(ctx context.Context, prefix string, limit int) []string {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.SuggestLatency.Observe(time.Since(start).Seconds())
		}
	}()

	prefix = strings.TrimSpace(prefix)
	n := utf8.RuneCountInString(prefix)
	if n == 0 || (s.cfg.MaxInputLength > 0 && n > s.cfg.MaxInputLength) {
		return []string{}
	}
	limit = s.limit(limit)

	var out []string
	err := resilience.WithTimeout(ctx, s.cfg.Timeout, "suggest", func(c context.Context) error {
		out = s.complete(c, prefix, limit)
		return c.Err()
	})
	if err != nil {
		s.logger.Warn("suggestion abandoned", "prefix", prefix, "error", err)
		return []string{}
	}
	return out
}

func (s *Suggester) complete(ctx context.Context, prefix string, limit int) []string {
	q := s.normalizer.Normalize(prefix)
	var primary, variants []language.Form
	for _, f := range q.Forms {
		if f.Origin == language.OriginKanaVariant {
			variants = append(variants, f)
		} else {
			primary = append(primary, f)
		}
	}

	found := s.collect(ctx, primary, limit)
	if len(found) == 0 && ctx.Err() == nil {
		found = s.collect(ctx, variants, limit)
	}

	list := make([]suggestion, 0, len(found))
	for text, freq := range found {
		list = append(list, suggestion{text: text, freq: freq})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].freq != list[j].freq {
			return list[i].freq > list[j].freq
		}
		return list[i].text < list[j].text
	})
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]string, len(list))
	for i, sg := range list {
		out[i] = sg.text
	}
	return out
}

// collect maps completions of forms to their best entry frequency. Each
// form contributes its limit most frequent keys, which is enough for the
// overall top limit since a key ranks the same under every form.
func (s *Suggester) collect(ctx context.Context, forms []language.Form, limit int) map[string]int {
	found := make(map[string]int)
	add := func(text string, ids []uint32) {
		if len(ids) == 0 {
			return
		}
		// ids are ordered by frequency, the first is the best
		freq := s.store.Frequency(ids[0])
		if cur, ok := found[text]; !ok || freq > cur {
			found[text] = freq
		}
	}
	for _, f := range forms {
		if ctx.Err() != nil {
			return found
		}
		if f.Script.Dominant() == language.Latin {
			s.collectGlosses(ctx, f.Text, add)
			continue
		}
		add(f.Text, s.store.Exact(f.Text))
		for _, m := range s.store.PrefixMatches(f.Text, limit, index.ByFrequency) {
			add(m.Key, m.IDs)
		}
	}
	return found
}

// collectGlosses completes Latin input against glosses. The suggestion is
// the gloss as written, and only glosses that literally start with the
// input qualify. That filter runs after the trie walk, so every gloss key
// under the input is visited.
func (s *Suggester) collectGlosses(ctx context.Context, text string, add func(string, []uint32)) {
	key := tokenizer.GlossKey(text)
	if key == "" {
		return
	}
	lower := strings.ToLower(text)
	visit := func(ids []uint32) {
		for _, id := range ids {
			e, ok := s.store.Entry(id)
			if !ok {
				continue
			}
			for _, glosses := range e.Glosses {
				for _, g := range glosses {
					if strings.HasPrefix(strings.ToLower(g), lower) {
						add(g, []uint32{id})
					}
				}
			}
		}
	}
	visit(s.store.Gloss(key))
	for _, m := range s.store.GlossPrefixMatches(key, 0, index.ByFrequency) {
		if ctx.Err() != nil {
			return
		}
		visit(m.IDs)
	}
}

func (s *Suggester) limit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	return max(limit, 1)
}
