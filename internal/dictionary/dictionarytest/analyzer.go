package dictionarytest

import "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"

var conjugations = map[string]struct{ base, pos string }{
	"食べた":   {"食べる", "動詞"},
	"食べました": {"食べる", "動詞"},
	"たべた":   {"たべる", "動詞"},
	"たべます":  {"たべる", "動詞"},
	"飲みました": {"飲む", "動詞"},
	"高かった":  {"高い", "形容詞"},
	"たかかった": {"たかい", "形容詞"},
}

// Analyzer returns a morphological analyzer that knows a handful of
// conjugations of the fixture words and nothing else.
func Analyzer() language.Analyzer {
	return language.AnalyzerFunc(func(text string) []language.Morpheme {
		c, ok := conjugations[text]
		if !ok {
			return nil
		}
		return []language.Morpheme{{Surface: text, End: len(text), BaseForm: c.base, POS: c.pos}}
	})
}
