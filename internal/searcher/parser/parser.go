// Package parser extracts search tags from raw query text.
package parser

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
)

// Plan is a query split into its search text and the filters its tags
// requested.
type Plan struct {
	Raw  string
	Text string
	// Categories lists the categories named by tags, in category order.
	// Empty means no tag narrowed the search.
	Categories []dictionary.Category
	// JLPT is the requested level, 0 when no level tag was given.
	JLPT int
}

// Parse splits tags such as "#kanji", "#names" or "#n5" off the query.
// Tags may use a full-width "＃". Unknown tags stay part of the text.
func Parse(query string) *Plan {
	plan := &Plan{Raw: query}
	words := strings.Fields(query)
	kept := words[:0:0]
	for _, w := range words {
		tag, ok := cutTag(w)
		if !ok {
			kept = append(kept, w)
			continue
		}
		if level, ok := jlptLevel(tag); ok {
			plan.JLPT = level
			continue
		}
		if c, err := dictionary.ParseCategory(tag); err == nil {
			if !slices.Contains(plan.Categories, c) {
				plan.Categories = append(plan.Categories, c)
			}
			continue
		}
		kept = append(kept, w)
	}
	slices.Sort(plan.Categories)
	plan.Text = strings.Join(kept, " ")
	return plan
}

func cutTag(word string) (string, bool) {
	for _, mark := range []string{"#", "＃"} {
		if tag, ok := strings.CutPrefix(word, mark); ok && tag != "" {
			return tag, true
		}
	}
	return "", false
}

func jlptLevel(tag string) (int, bool) {
	if len(tag) != 2 || (tag[0] != 'n' && tag[0] != 'N') {
		return 0, false
	}
	if tag[1] < '1' || tag[1] > '5' {
		return 0, false
	}
	return int(tag[1] - '0'), true
}
