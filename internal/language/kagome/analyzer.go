// Package kagome implements language.Analyzer with the kagome tokenizer and
// the IPA dictionary.
package kagome

import (
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
)

const (
	posVerb      = "動詞"
	posAdjective = "形容詞"
	posAuxVerb   = "助動詞"
	posParticle  = "助詞"
	subDependent = "非自立"
	subConjunct  = "接続助詞"
)

// Analyzer is safe for concurrent use.
type Analyzer struct {
	tok    *tokenizer.Tokenizer
	cache  *lru.Cache[string, []language.Morpheme]
	logger *slog.Logger
}

// New loads the IPA dictionary. cacheSize <= 0 disables memoization.
func New(cacheSize int) (*Analyzer, error) {
	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("creating kagome tokenizer: %w", err)
	}
	a := &Analyzer{
		tok:    tok,
		logger: slog.Default().With("component", "kagome-analyzer"),
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, []language.Morpheme](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating analysis cache: %w", err)
		}
		a.cache = cache
	}
	return a, nil
}

// Analyze returns one morpheme per verb or adjective span. Auxiliary verbs
// and dependent verbs that follow a span are folded into it, so "食べた"
// yields a single span whose base form is "食べる".
func (a *Analyzer) Analyze(text string) []language.Morpheme {
	if text == "" {
		return nil
	}
	if a.cache != nil {
		if cached, ok := a.cache.Get(text); ok {
			return cached
		}
	}
	out := a.analyze(text)
	if a.cache != nil {
		a.cache.Add(text, out)
	}
	return out
}

func (a *Analyzer) analyze(text string) []language.Morpheme {
	tokens := a.tok.Tokenize(text)

	var (
		out     []language.Morpheme
		current *language.Morpheme
		cursor  int
	)
	flush := func() {
		if current != nil {
			current.Surface = text[current.Start:current.End]
			out = append(out, *current)
			current = nil
		}
	}

	for _, kt := range tokens {
		start := strings.Index(text[cursor:], kt.Surface)
		if start < 0 {
			a.logger.Debug("token not found in input", "surface", kt.Surface)
			continue
		}
		start += cursor
		end := start + len(kt.Surface)
		cursor = end

		pos := kt.POS()
		head, sub := "", ""
		if len(pos) > 0 {
			head = pos[0]
		}
		if len(pos) > 1 {
			sub = pos[1]
		}

		switch {
		case current != nil && extendsSpan(head, sub):
			current.End = end
		case head == posVerb || head == posAdjective:
			flush()
			base, ok := kt.BaseForm()
			if !ok || base == "*" {
				base = kt.Surface
			}
			current = &language.Morpheme{Start: start, End: end, BaseForm: base, POS: head}
		default:
			flush()
		}
	}
	flush()
	return out
}

func extendsSpan(head, sub string) bool {
	switch head {
	case posAuxVerb:
		return true
	case posVerb:
		return sub == subDependent
	case posParticle:
		return sub == subConjunct
	}
	return false
}
