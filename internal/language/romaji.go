package language

import "strings"

// romajiTable covers Hepburn, Kunrei-shiki and Nihon-shiki spellings plus
// the x/l prefixed small kana used by IMEs.
var romajiTable = map[string]string{
	"a": "あ", "i": "い", "u": "う", "e": "え", "o": "お",

	"ka": "か", "ki": "き", "ku": "く", "ke": "け", "ko": "こ",
	"sa": "さ", "si": "し", "shi": "し", "su": "す", "se": "せ", "so": "そ",
	"ta": "た", "ti": "ち", "chi": "ち", "tu": "つ", "tsu": "つ", "te": "て", "to": "と",
	"na": "な", "ni": "に", "nu": "ぬ", "ne": "ね", "no": "の",
	"ha": "は", "hi": "ひ", "hu": "ふ", "fu": "ふ", "he": "へ", "ho": "ほ",
	"ma": "ま", "mi": "み", "mu": "む", "me": "め", "mo": "も",
	"ya": "や", "yu": "ゆ", "yo": "よ",
	"ra": "ら", "ri": "り", "ru": "る", "re": "れ", "ro": "ろ",
	"wa": "わ", "wi": "ゐ", "we": "ゑ", "wo": "を",

	"ga": "が", "gi": "ぎ", "gu": "ぐ", "ge": "げ", "go": "ご",
	"za": "ざ", "zi": "じ", "ji": "じ", "zu": "ず", "ze": "ぜ", "zo": "ぞ",
	"da": "だ", "di": "ぢ", "du": "づ", "dzu": "づ", "de": "で", "do": "ど",
	"ba": "ば", "bi": "び", "bu": "ぶ", "be": "べ", "bo": "ぼ",
	"pa": "ぱ", "pi": "ぴ", "pu": "ぷ", "pe": "ぺ", "po": "ぽ",
	"vu": "ゔ",

	"kya": "きゃ", "kyu": "きゅ", "kyo": "きょ",
	"sya": "しゃ", "syu": "しゅ", "syo": "しょ", "sha": "しゃ", "shu": "しゅ", "sho": "しょ", "she": "しぇ",
	"tya": "ちゃ", "tyu": "ちゅ", "tyo": "ちょ", "cha": "ちゃ", "chu": "ちゅ", "cho": "ちょ", "che": "ちぇ",
	"nya": "にゃ", "nyu": "にゅ", "nyo": "にょ",
	"hya": "ひゃ", "hyu": "ひゅ", "hyo": "ひょ",
	"mya": "みゃ", "myu": "みゅ", "myo": "みょ",
	"rya": "りゃ", "ryu": "りゅ", "ryo": "りょ",
	"gya": "ぎゃ", "gyu": "ぎゅ", "gyo": "ぎょ",
	"zya": "じゃ", "zyu": "じゅ", "zyo": "じょ", "ja": "じゃ", "ju": "じゅ", "jo": "じょ", "je": "じぇ",
	"jya": "じゃ", "jyu": "じゅ", "jyo": "じょ",
	"dya": "ぢゃ", "dyu": "ぢゅ", "dyo": "ぢょ",
	"bya": "びゃ", "byu": "びゅ", "byo": "びょ",
	"pya": "ぴゃ", "pyu": "ぴゅ", "pyo": "ぴょ",
	"fa": "ふぁ", "fi": "ふぃ", "fe": "ふぇ", "fo": "ふぉ",
	"thi": "てぃ", "dhi": "でぃ", "tsa": "つぁ",

	"xa": "ぁ", "xi": "ぃ", "xu": "ぅ", "xe": "ぇ", "xo": "ぉ",
	"la": "ぁ", "li": "ぃ", "lu": "ぅ", "le": "ぇ", "lo": "ぉ",
	"xya": "ゃ", "xyu": "ゅ", "xyo": "ょ", "lya": "ゃ", "lyu": "ゅ", "lyo": "ょ",
	"xtu": "っ", "ltu": "っ", "xtsu": "っ", "ltsu": "っ",
	"xwa": "ゎ", "lwa": "ゎ",
}

const maxRomajiChunk = 4

// RomajiToHiragana converts romanized Japanese to hiragana. The boolean is
// false when some part of the input has no kana spelling, in which case the
// partial output is meaningless.
func RomajiToHiragana(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ':
			i++
			continue
		case c == '-':
			b.WriteString("ー")
			i++
			continue
		case c == '\'':
			i++
			continue
		}
		if c == 'n' {
			next := byte(0)
			if i+1 < len(s) {
				next = s[i+1]
			}
			if next == '\'' {
				b.WriteString("ん")
				i += 2
				continue
			}
			if next == 'n' {
				// "nn" before a vowel or y is ん followed by a na-row kana.
				after := byte(0)
				if i+2 < len(s) {
					after = s[i+2]
				}
				b.WriteString("ん")
				if isVowel(after) || after == 'y' {
					i++
				} else {
					i += 2
				}
				continue
			}
			if !isVowel(next) && next != 'y' {
				b.WriteString("ん")
				i++
				continue
			}
		}
		if i+1 < len(s) && c == s[i+1] && isDoublingConsonant(c) {
			b.WriteString("っ")
			i++
			continue
		}
		if c == 't' && strings.HasPrefix(s[i:], "tch") {
			b.WriteString("っ")
			i++
			continue
		}
		matched := false
		for size := maxRomajiChunk; size > 0; size-- {
			if i+size > len(s) {
				continue
			}
			if kana, ok := romajiTable[s[i:i+size]]; ok {
				b.WriteString(kana)
				i += size
				matched = true
				break
			}
		}
		if !matched {
			return b.String(), false
		}
	}
	return b.String(), true
}

func isVowel(c byte) bool {
	return c == 'a' || c == 'i' || c == 'u' || c == 'e' || c == 'o'
}

func isDoublingConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && !isVowel(c) && c != 'n'
}
