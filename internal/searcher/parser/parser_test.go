package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		text       string
		categories []dictionary.Category
		jlpt       int
	}{
		{"plain", "食べる", "食べる", nil, 0},
		{"category tag", "食 #kanji", "食", []dictionary.Category{dictionary.Kanji}, 0},
		{"plural tags in category order", "#sentences たべる #words", "たべる", []dictionary.Category{dictionary.Word, dictionary.Sentence}, 0},
		{"duplicate tag", "#name #names 田中", "田中", []dictionary.Category{dictionary.Name}, 0},
		{"jlpt", "eat #N5", "eat", nil, 5},
		{"full-width mark", "食べる ＃word", "食べる", []dictionary.Category{dictionary.Word}, 0},
		{"unknown tag kept", "#verb taberu", "#verb taberu", nil, 0},
		{"out of range level kept", "#n7 x", "#n7 x", nil, 0},
		{"bare mark kept", "# x", "# x", nil, 0},
		{"whitespace collapsed", "  to   eat  ", "to eat", nil, 0},
		{"empty", "", "", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Parse(tt.query)
			assert.Equal(t, tt.query, plan.Raw)
			assert.Equal(t, tt.text, plan.Text)
			assert.Equal(t, tt.categories, plan.Categories)
			assert.Equal(t, tt.jlpt, plan.JLPT)
		})
	}
}
