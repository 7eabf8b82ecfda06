// Package inflect generates the common conjugations of Japanese verbs and
// i-adjectives from their dictionary form and JMdict part-of-speech codes.
package inflect

import "strings"

// Class is a conjugation class.
type Class uint8

const (
	None Class = iota
	Ichidan
	Godan
	Suru
	Kuru
	IAdjective
)

func (c Class) String() string {
	switch c {
	case Ichidan:
		return "ichidan"
	case Godan:
		return "godan"
	case Suru:
		return "suru"
	case Kuru:
		return "kuru"
	case IAdjective:
		return "i-adjective"
	}
	return "none"
}

// ClassOf picks the first conjugating class among pos codes.
func ClassOf(pos []string) Class {
	for _, p := range pos {
		switch {
		case p == "v1" || strings.HasPrefix(p, "v1-"):
			return Ichidan
		case strings.HasPrefix(p, "v5") && p != "v5aru":
			return Godan
		case p == "vs-i" || p == "vs-s":
			return Suru
		case p == "vk":
			return Kuru
		case p == "adj-i" || p == "adj-ix":
			return IAdjective
		}
	}
	return None
}

var ichidanEndings = []string{
	"ます", "ました", "ません", "ませんでした", "ましょう", "たい",
	"た", "て", "ない", "なかった", "なくて",
	"られる", "させる", "よう", "れば", "ろ",
}

type godanRow struct {
	i, a, e, o string
	te, ta     string
}

var godanRows = map[string]godanRow{
	"う": {"い", "わ", "え", "お", "って", "った"},
	"く": {"き", "か", "け", "こ", "いて", "いた"},
	"ぐ": {"ぎ", "が", "げ", "ご", "いで", "いだ"},
	"す": {"し", "さ", "せ", "そ", "して", "した"},
	"つ": {"ち", "た", "て", "と", "って", "った"},
	"ぬ": {"に", "な", "ね", "の", "んで", "んだ"},
	"ぶ": {"び", "ば", "べ", "ぼ", "んで", "んだ"},
	"む": {"み", "ま", "め", "も", "んで", "んだ"},
	"る": {"り", "ら", "れ", "ろ", "って", "った"},
}

var suruEndings = []string{
	"します", "しました", "しません", "しませんでした", "したい",
	"した", "して", "しない", "しなかった",
	"される", "させる", "しよう", "すれば", "しろ", "できる",
}

var kuruKanaStems = []string{
	"きます", "きました", "きません", "きたい", "きた", "きて",
	"こない", "こなかった", "こられる", "こさせる", "こよう", "くれば", "こい",
}

var kuruKanjiEndings = []string{
	"ます", "ました", "ません", "たい", "た", "て",
	"ない", "なかった", "られる", "させる", "よう", "れば", "い",
}

var adjectiveEndings = []string{
	"く", "くない", "かった", "くなかった", "くて", "ければ", "さ", "そう",
}

// Forms returns the conjugations of word, excluding word itself. It returns
// nil when pos has no conjugating class or word does not have the ending the
// class requires.
func Forms(word string, pos []string) []string {
	switch ClassOf(pos) {
	case Ichidan:
		stem, ok := strings.CutSuffix(word, "る")
		if !ok {
			return nil
		}
		return withStem(stem, ichidanEndings)
	case Godan:
		return godan(word, pos)
	case Suru:
		stem, ok := strings.CutSuffix(word, "する")
		if !ok {
			return nil
		}
		return withStem(stem, suruEndings)
	case Kuru:
		if stem, ok := strings.CutSuffix(word, "来る"); ok {
			return withStem(stem+"来", kuruKanjiEndings)
		}
		if stem, ok := strings.CutSuffix(word, "くる"); ok {
			return withStem(stem, kuruKanaStems)
		}
		return nil
	case IAdjective:
		if word == "いい" {
			return withStem("よ", adjectiveEndings)
		}
		stem, ok := strings.CutSuffix(word, "い")
		if !ok {
			return nil
		}
		return withStem(stem, adjectiveEndings)
	}
	return nil
}

func godan(word string, pos []string) []string {
	runes := []rune(word)
	if len(runes) < 2 {
		return nil
	}
	last := string(runes[len(runes)-1])
	row, ok := godanRows[last]
	if !ok {
		return nil
	}
	stem := string(runes[:len(runes)-1])
	for _, p := range pos {
		// 行く and its compounds
		if p == "v5k-s" {
			row.te, row.ta = "って", "った"
		}
	}
	return []string{
		stem + row.i + "ます",
		stem + row.i + "ました",
		stem + row.i + "ません",
		stem + row.i + "ませんでした",
		stem + row.i + "たい",
		stem + row.a + "ない",
		stem + row.a + "なかった",
		stem + row.te,
		stem + row.ta,
		stem + row.e + "ば",
		stem + row.e + "る",
		stem + row.o + "う",
		stem + row.a + "れる",
		stem + row.a + "せる",
		stem + row.e,
	}
}

func withStem(stem string, endings []string) []string {
	out := make([]string, len(endings))
	for i, e := range endings {
		out[i] = stem + e
	}
	return out
}
