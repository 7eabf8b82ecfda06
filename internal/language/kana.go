package language

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ToHiragana maps full-width katakana to hiragana and leaves everything else.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x30A1 && r <= 0x30F6 {
			return r - 0x60
		}
		return r
	}, s)
}

// ToKatakana maps hiragana to full-width katakana and leaves everything else.
func ToKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x3041 && r <= 0x3096 {
			return r + 0x60
		}
		return r
	}, s)
}

// IsAllKana reports whether s is non-empty and made only of kana.
func IsAllKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsKana(r) {
			return false
		}
	}
	return true
}

// Fold narrows full-width ASCII, widens half-width katakana, composes
// combining marks and lowercases Latin letters.
func Fold(s string) string {
	folded, _, err := transform.String(transform.Chain(width.Fold, norm.NFC), s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// TrimTrailingLatin strips a run of Latin letters from the end of a
// Japanese string, as left behind by an in-progress IME conversion like
// "たべr". It returns "" when nothing was trimmed or nothing Japanese
// remains.
func TrimTrailingLatin(s string) string {
	end := len(s)
	for end > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if r > utf8.RuneSelf || !isASCIILetter(byte(r)) {
			break
		}
		end -= size
	}
	if end == len(s) || end == 0 {
		return ""
	}
	trimmed := s[:end]
	if !DetectScript(trimmed).IsJapanese() {
		return ""
	}
	return trimmed
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
