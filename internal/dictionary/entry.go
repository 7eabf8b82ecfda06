// Package dictionary holds the entry model shared by resource providers,
// the index and the search path.
package dictionary

import (
	"fmt"
	"strings"
)

// Category tags an entry. The declaration order is the category order used
// to break ties between otherwise equal results.
type Category uint8

const (
	Word Category = iota
	Kanji
	Name
	Sentence
)

// Categories lists every category in category order.
var Categories = []Category{Word, Kanji, Name, Sentence}

func (c Category) String() string {
	switch c {
	case Word:
		return "word"
	case Kanji:
		return "kanji"
	case Name:
		return "name"
	case Sentence:
		return "sentence"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseCategory accepts singular and plural names in any case.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word", "words":
		return Word, nil
	case "kanji":
		return Kanji, nil
	case "name", "names":
		return Name, nil
	case "sentence", "sentences":
		return Sentence, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Record is one entry as a resource provider yields it.
type Record struct {
	SourceID  string              `json:"source_id" msgpack:"id"`
	Kanji     []string            `json:"kanji,omitempty" msgpack:"k,omitempty"`
	Readings  []string            `json:"readings,omitempty" msgpack:"r,omitempty"`
	Glosses   map[string][]string `json:"glosses,omitempty" msgpack:"g,omitempty"`
	Frequency int                 `json:"frequency" msgpack:"f"`
	JLPT      int                 `json:"jlpt,omitempty" msgpack:"j,omitempty"`
	POS       []string            `json:"pos,omitempty" msgpack:"p,omitempty"`
}

// Validate reports why a record cannot be indexed.
func (r Record) Validate() error {
	if len(r.Kanji) == 0 && len(r.Readings) == 0 {
		return fmt.Errorf("record %q has no surface form", r.SourceID)
	}
	if r.Frequency < 0 {
		return fmt.Errorf("record %q has negative frequency %d", r.SourceID, r.Frequency)
	}
	if r.JLPT < 0 || r.JLPT > 5 {
		return fmt.Errorf("record %q has jlpt level %d outside 0-5", r.SourceID, r.JLPT)
	}
	return nil
}

// Entry is an indexed record. Frequency is a relevance prior: larger means
// more common.
type Entry struct {
	ID       uint32   `json:"id"`
	Category Category `json:"category"`
	Record
}

// Surfaces returns kanji spellings followed by readings.
func (e *Entry) Surfaces() []string {
	out := make([]string, 0, len(e.Kanji)+len(e.Readings))
	out = append(out, e.Kanji...)
	return append(out, e.Readings...)
}

// HasPOS reports whether any of the entry's part-of-speech codes starts with
// prefix.
func (e *Entry) HasPOS(prefix string) bool {
	for _, p := range e.POS {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
