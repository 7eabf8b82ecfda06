// Package dictionarytest provides a small, fixed dictionary for tests.
package dictionarytest

import "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"

func en(glosses ...string) map[string][]string {
	return map[string][]string{"en": glosses}
}

// Records returns a fresh copy of the fixture dictionary. Ids assigned by a
// builder follow the order here: words 0-8, kanji 9-10, names 11-12,
// sentences 13-14.
func Records() map[dictionary.Category][]dictionary.Record {
	return map[dictionary.Category][]dictionary.Record{
		dictionary.Word: {
			{SourceID: "w-taberu", Kanji: []string{"食べる"}, Readings: []string{"たべる"}, Glosses: en("to eat"), Frequency: 90, JLPT: 5, POS: []string{"v1", "vt"}},
			{SourceID: "w-nomu", Kanji: []string{"飲む"}, Readings: []string{"のむ"}, Glosses: en("to drink"), Frequency: 85, JLPT: 5, POS: []string{"v5m", "vt"}},
			{SourceID: "w-kanji", Kanji: []string{"漢字"}, Readings: []string{"かんじ"}, Glosses: en("Chinese characters", "kanji"), Frequency: 70, JLPT: 4, POS: []string{"n"}},
			{SourceID: "w-kanpou", Kanji: []string{"漢方"}, Readings: []string{"かんぽう"}, Glosses: en("traditional Chinese medicine"), Frequency: 20, POS: []string{"n"}},
			{SourceID: "w-tabemono", Kanji: []string{"食べ物"}, Readings: []string{"たべもの"}, Glosses: en("food"), Frequency: 80, JLPT: 5, POS: []string{"n"}},
			{SourceID: "w-ramen", Readings: []string{"ラーメン"}, Glosses: en("ramen", "Chinese-style noodles"), Frequency: 60, POS: []string{"n"}},
			{SourceID: "w-kanwajiten", Kanji: []string{"漢和辞典"}, Readings: []string{"かんわじてん"}, Glosses: en("kanji dictionary"), Frequency: 15, POS: []string{"n"}},
			{SourceID: "w-takai", Kanji: []string{"高い"}, Readings: []string{"たかい"}, Glosses: en("high", "expensive"), Frequency: 75, JLPT: 5, POS: []string{"adj-i"}},
			{SourceID: "w-shokudou", Kanji: []string{"食堂"}, Readings: []string{"しょくどう"}, Glosses: en("dining hall", "cafeteria"), Frequency: 50, JLPT: 4, POS: []string{"n"}},
		},
		dictionary.Kanji: {
			{SourceID: "k-kan", Kanji: []string{"漢"}, Readings: []string{"かん"}, Glosses: en("Sino-", "China"), Frequency: 65, JLPT: 3},
			{SourceID: "k-shoku", Kanji: []string{"食"}, Readings: []string{"しょく", "た"}, Glosses: en("eat", "food"), Frequency: 88, JLPT: 5},
		},
		dictionary.Name: {
			{SourceID: "n-tanaka", Kanji: []string{"田中"}, Readings: []string{"たなか"}, Glosses: en("Tanaka"), Frequency: 40},
			{SourceID: "n-kanda", Kanji: []string{"神田"}, Readings: []string{"かんだ"}, Glosses: en("Kanda"), Frequency: 12},
		},
		dictionary.Sentence: {
			{SourceID: "s-bread", Kanji: []string{"私は毎朝パンを食べます。"}, Readings: []string{"わたしはまいあさぱんをたべます。"}, Glosses: en("I eat bread every morning."), Frequency: 10},
			{SourceID: "s-water", Kanji: []string{"水を飲みたい。"}, Readings: []string{"みずをのみたい。"}, Glosses: en("I want to drink water."), Frequency: 8},
		},
	}
}

// Fixture ids.
const (
	Taberu     uint32 = 0
	Nomu       uint32 = 1
	KanjiWord  uint32 = 2
	Kanpou     uint32 = 3
	Tabemono   uint32 = 4
	Ramen      uint32 = 5
	Kanwajiten uint32 = 6
	Takai      uint32 = 7
	Shokudou   uint32 = 8
	KanKanji   uint32 = 9
	ShokuKanji uint32 = 10
	Tanaka     uint32 = 11
	Kanda      uint32 = 12
	BreadSent  uint32 = 13
	WaterSent  uint32 = 14
)

// Crowded returns 1000 rare four-kana words under か, all of which sort
// before the one common word かれ (frequency 1000). Their glosses crowd
// "cat" the same way under "ca".
func Crowded() map[dictionary.Category][]dictionary.Record {
	kana := []rune("あいうえおきくけこさ")
	latin := []rune("bdfghjkmpz")
	words := make([]dictionary.Record, 0, len(kana)*len(kana)*len(kana)+1)
	for a := range kana {
		for b := range kana {
			for c := range kana {
				reading := string([]rune{'か', kana[a], kana[b], kana[c]})
				words = append(words, dictionary.Record{
					SourceID:  "w-" + reading,
					Readings:  []string{reading},
					Glosses:   en("ca" + string([]rune{latin[a], latin[b], latin[c]})),
					Frequency: 1,
				})
			}
		}
	}
	words = append(words, dictionary.Record{SourceID: "w-kare", Readings: []string{"かれ"}, Glosses: en("cat"), Frequency: 1000})
	return map[dictionary.Category][]dictionary.Record{dictionary.Word: words}
}
