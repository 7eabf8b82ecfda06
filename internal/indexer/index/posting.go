package index

import "iter"

// Posting is one row of the n-gram index: the gram occurs Freq times in
// the indexed text of EntryID.
type Posting struct {
	EntryID uint32
	Freq    uint32
}

// PostingList is ordered by entry id.
type PostingList []Posting

// All iterates the list in entry id order. The sequence can be ranged over
// any number of times.
func (pl PostingList) All() iter.Seq[Posting] {
	return func(yield func(Posting) bool) {
		for _, p := range pl {
			if !yield(p) {
				return
			}
		}
	}
}
