// Package language turns raw query text into normalized candidate forms:
// script detection, width folding, romaji to kana, kana counterparts and
// dictionary base forms of conjugated words.
package language

import (
	"log/slog"
	"strings"
)

// Origin records how a candidate form was derived.
type Origin uint8

const (
	OriginRaw Origin = iota
	OriginFolded
	OriginRomanized
	OriginKanaVariant
	OriginTrimmed
)

func (o Origin) String() string {
	switch o {
	case OriginRaw:
		return "raw"
	case OriginFolded:
		return "folded"
	case OriginRomanized:
		return "romanized"
	case OriginKanaVariant:
		return "kana_variant"
	case OriginTrimmed:
		return "trimmed"
	}
	return "unknown"
}

// Form is one normalized candidate spelling of the query.
type Form struct {
	Text   string      `json:"text"`
	Script Composition `json:"script"`
	Origin Origin      `json:"origin"`
}

// Query is the normalized view of one raw input. Forms always has at least
// one element and Forms[0] is the trimmed raw text.
type Query struct {
	Raw          string      `json:"raw"`
	Script       Composition `json:"script"`
	Forms        []Form      `json:"forms"`
	Morphemes    []Morpheme  `json:"morphemes,omitempty"`
	Unclassified bool        `json:"unclassified"`
}

// HasJapanese reports whether any candidate form is written in kana or kanji.
func (q *Query) HasJapanese() bool {
	for _, f := range q.Forms {
		if f.Script.IsJapanese() {
			return true
		}
	}
	return false
}

// BaseForms returns the distinct dictionary forms from morphological
// analysis that do not already appear among the candidate forms.
func (q *Query) BaseForms() []string {
	seen := make(map[string]struct{}, len(q.Forms))
	for _, f := range q.Forms {
		seen[f.Text] = struct{}{}
	}
	var out []string
	for _, m := range q.Morphemes {
		if !m.Inflected() {
			continue
		}
		if _, ok := seen[m.BaseForm]; ok {
			continue
		}
		seen[m.BaseForm] = struct{}{}
		out = append(out, m.BaseForm)
	}
	return out
}

// Texts returns the text of every candidate form in order.
func (q *Query) Texts() []string {
	out := make([]string, len(q.Forms))
	for i, f := range q.Forms {
		out[i] = f.Text
	}
	return out
}

// Normalizer is safe for concurrent use as long as its Analyzer is.
type Normalizer struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewNormalizer returns a Normalizer. A nil analyzer disables base-form
// derivation.
func NewNormalizer(analyzer Analyzer) *Normalizer {
	if analyzer == nil {
		analyzer = NoopAnalyzer
	}
	return &Normalizer{
		analyzer: analyzer,
		logger:   slog.Default().With("component", "normalizer"),
	}
}

// Normalize derives candidate forms from raw using the detected script.
func (n *Normalizer) Normalize(raw string) *Query {
	return n.NormalizeWithHint(raw, Unclassified)
}

// NormalizeWithHint is Normalize with a caller-provided script that
// overrides the detected dominant script when deciding whether to romanize.
func (n *Normalizer) NormalizeWithHint(raw string, hint Script) *Query {
	original := strings.TrimSpace(raw)
	if original == "" {
		original = raw
	}
	q := &Query{
		Raw:    raw,
		Script: DetectScript(original),
	}
	add := func(text string, origin Origin) {
		if text == "" {
			return
		}
		for _, f := range q.Forms {
			if f.Text == text {
				return
			}
		}
		q.Forms = append(q.Forms, Form{Text: text, Script: DetectScript(text), Origin: origin})
	}

	q.Forms = append(q.Forms, Form{Text: original, Script: q.Script, Origin: OriginRaw})

	dominant := q.Script.Dominant()
	if hint != Unclassified {
		dominant = hint
	}
	if dominant == Unclassified {
		q.Unclassified = true
		return q
	}

	folded := Fold(original)
	add(folded, OriginFolded)

	if dominant == Latin {
		if kana, ok := RomajiToHiragana(folded); ok {
			add(kana, OriginRomanized)
			add(ToKatakana(kana), OriginRomanized)
		}
	}

	if IsAllKana(folded) {
		add(ToHiragana(folded), OriginKanaVariant)
		add(ToKatakana(folded), OriginKanaVariant)
	}

	if trimmed := TrimTrailingLatin(folded); trimmed != "" {
		add(trimmed, OriginTrimmed)
	}

	q.Morphemes = n.analyze(q.Forms)
	return q
}

// analyze runs the analyzer over the first kanji-bearing form and the first
// kana form, which covers both "食べた" and romanized "tabeta".
func (n *Normalizer) analyze(forms []Form) []Morpheme {
	var targets []string
	var haveKanji, haveKana bool
	for _, f := range forms {
		switch f.Script.Dominant() {
		case Kanji:
			if !haveKanji {
				targets = append(targets, f.Text)
				haveKanji = true
			}
		case Kana:
			if !haveKana && f.Script.Scripts.Has(Hiragana) {
				targets = append(targets, f.Text)
				haveKana = true
			}
		}
	}

	var out []Morpheme
	seen := make(map[[2]string]struct{})
	for _, text := range targets {
		for _, m := range n.safeAnalyze(text) {
			key := [2]string{m.Surface, m.BaseForm}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

func (n *Normalizer) safeAnalyze(text string) (out []Morpheme) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("morphological analyzer panicked", "text", text, "panic", r)
			out = nil
		}
	}()
	return n.analyzer.Analyze(text)
}
