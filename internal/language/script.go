package language

import (
	"strings"
	"unicode"
)

// Script is a bit set of writing systems found in a piece of text.
type Script uint8

const (
	Hiragana Script = 1 << iota
	Katakana
	Kanji
	Latin

	Unclassified Script = 0
	Kana                = Hiragana | Katakana
	Japanese            = Kana | Kanji
)

func (s Script) Has(o Script) bool { return s&o != 0 }

func (s Script) String() string {
	if s == Unclassified {
		return "unclassified"
	}
	var parts []string
	for _, p := range []struct {
		s    Script
		name string
	}{{Hiragana, "hiragana"}, {Katakana, "katakana"}, {Kanji, "kanji"}, {Latin, "latin"}} {
		if s.Has(p.s) {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "+")
}

// Composition summarizes the scripts of a text and how many runes fell into
// the Japanese and Latin groups.
type Composition struct {
	Scripts  Script `json:"scripts"`
	Japanese int    `json:"japanese"`
	Latin    int    `json:"latin"`
}

// DetectScript classifies every rune of text. Digits, spaces and punctuation
// count toward neither group.
func DetectScript(text string) Composition {
	var c Composition
	for _, r := range text {
		switch {
		case isHiragana(r):
			c.Scripts |= Hiragana
			c.Japanese++
		case isKatakana(r):
			c.Scripts |= Katakana
			c.Japanese++
		case isKanji(r):
			c.Scripts |= Kanji
			c.Japanese++
		case unicode.IsLetter(r) && unicode.Is(unicode.Latin, r):
			c.Scripts |= Latin
			c.Latin++
		}
	}
	return c
}

// Dominant reduces the composition to one of Kanji, Kana, Latin or
// Unclassified. Any kanji in a Japanese-majority text makes it Kanji, since
// mixed kanji-kana words are kanji spellings.
func (c Composition) Dominant() Script {
	switch {
	case c.Japanese == 0 && c.Latin == 0:
		return Unclassified
	case c.Latin > c.Japanese:
		return Latin
	case c.Scripts.Has(Kanji):
		return Kanji
	default:
		return Kana
	}
}

// Mixed reports whether Latin letters and Japanese script both occur.
func (c Composition) Mixed() bool {
	return c.Latin > 0 && c.Japanese > 0
}

// IsJapanese reports whether the text contains any kana or kanji.
func (c Composition) IsJapanese() bool {
	return c.Scripts.Has(Japanese)
}

func isHiragana(r rune) bool {
	return r >= 0x3041 && r <= 0x309F
}

func isKatakana(r rune) bool {
	return (r >= 0x30A0 && r <= 0x30FF) || (r >= 0x31F0 && r <= 0x31FF) || (r >= 0xFF66 && r <= 0xFF9F)
}

func isKanji(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// IsKanji reports whether r is a CJK ideograph.
func IsKanji(r rune) bool { return isKanji(r) }

// IsKana reports whether r is hiragana or katakana, including the prolonged
// sound mark.
func IsKana(r rune) bool { return isHiragana(r) || isKatakana(r) }
