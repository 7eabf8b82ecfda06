package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectScript(t *testing.T) {
	tests := []struct {
		in       string
		dominant Script
		mixed    bool
	}{
		{"食べる", Kanji, false},
		{"たべる", Kana, false},
		{"カタカナ", Kana, false},
		{"tabemasu", Latin, false},
		{"ｔａｂｅ", Latin, false},
		{"たべr", Kana, true},
		{"123 !?", Unclassified, false},
		{"", Unclassified, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := DetectScript(tt.in)
			assert.Equal(t, tt.dominant, c.Dominant())
			assert.Equal(t, tt.mixed, c.Mixed())
		})
	}
}

func TestScriptString(t *testing.T) {
	assert.Equal(t, "hiragana+kanji", DetectScript("食べる").Scripts.String())
	assert.Equal(t, "unclassified", Unclassified.String())
}

func TestRomajiToHiragana(t *testing.T) {
	tests := map[string]string{
		"tabemasu":   "たべます",
		"konnichiha": "こんにちは",
		"kanji":      "かんじ",
		"kitte":      "きって",
		"matcha":     "まっちゃ",
		"shinbun":    "しんぶん",
		"kan'i":      "かんい",
		"onna":       "おんな",
		"TOUKYOU":    "とうきょう",
		"ra-men":     "らーめん",
	}
	for in, want := range tests {
		got, ok := RomajiToHiragana(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"eat", "hello", "", "食べ"} {
		_, ok := RomajiToHiragana(in)
		assert.False(t, ok, in)
	}
}

func TestKanaConversion(t *testing.T) {
	assert.Equal(t, "たべる", ToHiragana("タベル"))
	assert.Equal(t, "タベル", ToKatakana("たべる"))
	assert.Equal(t, "食ベル", ToKatakana("食べる"))
	assert.True(t, IsAllKana("ラーメン"))
	assert.False(t, IsAllKana("食べる"))
	assert.False(t, IsAllKana(""))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "tabe", Fold("ＴＡＢＥ"))
	assert.Equal(t, "カタカナ", Fold("ｶﾀｶﾅ"))
}

func TestTrimTrailingLatin(t *testing.T) {
	assert.Equal(t, "たべ", TrimTrailingLatin("たべr"))
	assert.Equal(t, "", TrimTrailingLatin("たべる"))
	assert.Equal(t, "", TrimTrailingLatin("abc"))
}

func fakeAnalyzer() Analyzer {
	return AnalyzerFunc(func(text string) []Morpheme {
		switch text {
		case "食べた":
			return []Morpheme{{Surface: "食べた", End: len("食べた"), BaseForm: "食べる", POS: "動詞"}}
		case "たべます":
			return []Morpheme{{Surface: "たべます", End: len("たべます"), BaseForm: "たべる", POS: "動詞"}}
		case "食べる":
			return []Morpheme{{Surface: "食べる", End: len("食べる"), BaseForm: "食べる", POS: "動詞"}}
		}
		return nil
	})
}

func TestNormalizeKanji(t *testing.T) {
	q := NewNormalizer(fakeAnalyzer()).Normalize("食べた")
	require.NotEmpty(t, q.Forms)
	assert.Equal(t, "食べた", q.Forms[0].Text)
	assert.Equal(t, OriginRaw, q.Forms[0].Origin)
	assert.Equal(t, []string{"食べる"}, q.BaseForms())
	assert.True(t, q.HasJapanese())
}

func TestNormalizeDictionaryFormHasNoBaseForm(t *testing.T) {
	q := NewNormalizer(fakeAnalyzer()).Normalize("食べる")
	assert.Empty(t, q.BaseForms())
}

func TestNormalizeRomaji(t *testing.T) {
	q := NewNormalizer(fakeAnalyzer()).Normalize("  tabemasu ")
	assert.Equal(t, []string{"tabemasu", "たべます", "タベマス"}, q.Texts())
	assert.Equal(t, OriginRomanized, q.Forms[1].Origin)
	assert.Equal(t, []string{"たべる"}, q.BaseForms())
}

func TestNormalizeKanaVariants(t *testing.T) {
	q := NewNormalizer(nil).Normalize("ラーメン")
	assert.Equal(t, []string{"ラーメン", "らーめん"}, q.Texts())
}

func TestNormalizeUnclassified(t *testing.T) {
	q := NewNormalizer(nil).Normalize("☆☆")
	assert.True(t, q.Unclassified)
	assert.Equal(t, []string{"☆☆"}, q.Texts())
}

func TestNormalizeNeverEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "x", "漢"} {
		q := NewNormalizer(nil).Normalize(in)
		assert.NotEmpty(t, q.Forms, in)
	}
}

func TestNormalizeSurvivesAnalyzerPanic(t *testing.T) {
	n := NewNormalizer(AnalyzerFunc(func(string) []Morpheme { panic("dictionary missing") }))
	q := n.Normalize("食べた")
	assert.Equal(t, []string{"食べた"}, q.Texts())
	assert.Empty(t, q.Morphemes)
}

func TestNormalizeHint(t *testing.T) {
	// an explicit Kana hint skips romanization of Latin text
	q := NewNormalizer(nil).NormalizeWithHint("kana", Latin)
	assert.Contains(t, q.Texts(), "かな")
	q = NewNormalizer(nil).NormalizeWithHint("kana", Kana)
	assert.NotContains(t, q.Texts(), "かな")
}

func TestNormalizeTrimmedIMEInput(t *testing.T) {
	q := NewNormalizer(nil).Normalize("たべr")
	assert.Contains(t, q.Texts(), "たべ")
}
