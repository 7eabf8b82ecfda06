// Package tokenizer splits dictionary text into index terms: script-aware
// n-grams for the fuzzy index, vector terms for similarity scoring and
// stemmed keys for gloss lookups.
package tokenizer

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
)

const (
	JapaneseGramSize = 2
	LatinGramSize    = 3
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"with": {}, "this": {}, "but": {}, "they": {}, "one": {},
	"something": {}, "someone": {}, "oneself": {}, "etc": {},
}

// Token is one stemmed word of gloss text.
type Token struct {
	Term string
}

type runKind uint8

const (
	runJapanese runKind = iota
	runLatin
)

type run struct {
	kind  runKind
	runes []rune
}

// runs splits text into maximal Japanese runs and lowercased Latin/digit
// words. Everything else separates runs.
func runs(text string) []run {
	var out []run
	var cur *run
	for _, r := range text {
		var kind runKind
		switch {
		case language.IsKana(r) || language.IsKanji(r):
			kind = runJapanese
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			kind = runLatin
			r = unicode.ToLower(r)
		default:
			cur = nil
			continue
		}
		if cur == nil || cur.kind != kind {
			out = append(out, run{kind: kind})
			cur = &out[len(out)-1]
		}
		cur.runes = append(cur.runes, r)
	}
	return out
}

// Grams returns the overlapping n-grams of text in order of appearance,
// bigrams for Japanese runs and trigrams for Latin words. A run shorter
// than its gram size yields itself. Repeated grams are kept so callers can
// count term frequency.
func Grams(text string) []string {
	var out []string
	for _, r := range runs(text) {
		size := JapaneseGramSize
		if r.kind == runLatin {
			size = LatinGramSize
		}
		out = appendGrams(out, r.runes, size)
	}
	return out
}

func appendGrams(out []string, rs []rune, size int) []string {
	if len(rs) <= size {
		return append(out, string(rs))
	}
	for i := 0; i+size <= len(rs); i++ {
		out = append(out, string(rs[i:i+size]))
	}
	return out
}

// Distinct removes repeated grams, keeping first occurrences.
func Distinct(grams []string) []string {
	seen := make(map[string]struct{}, len(grams))
	out := grams[:0:0]
	for _, g := range grams {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Terms returns vector-space terms: for Japanese runs the bigrams plus the
// whole run when it is longer than a bigram, for Latin text the stemmed
// words.
func Terms(text string) []string {
	var out []string
	for _, r := range runs(text) {
		switch r.kind {
		case runJapanese:
			out = appendGrams(out, r.runes, JapaneseGramSize)
			if len(r.runes) > JapaneseGramSize {
				out = append(out, string(r.runes))
			}
		case runLatin:
			word := string(r.runes)
			if _, isStop := stopWords[word]; isStop {
				continue
			}
			out = append(out, snowballeng.Stem(word, false))
		}
	}
	return out
}

// Tokenize breaks gloss text into stemmed, lowercased Tokens with stop-words
// removed.
func Tokenize(text string) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words))
	for _, word := range words {
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		// Porter2 with its own stop-word list off; stopWords above decides
		stemmed := snowballeng.Stem(word, false)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{Term: stemmed})
	}
	return tokens
}

// GlossKey is the lookup key of a gloss or a Latin query: its stemmed
// tokens joined by single spaces. "to eat" and "eating" share the key
// "eat".
func GlossKey(text string) string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return strings.Join(terms, " ")
}
