package index

import (
	"container/heap"
	"sort"
)

type rankedMatch struct {
	PrefixMatch
	runes int
	freq  int
}

func betterMatch(order Order) func(a, b rankedMatch) bool {
	if order == ByFrequency {
		return func(a, b rankedMatch) bool {
			if a.freq != b.freq {
				return a.freq > b.freq
			}
			return a.Key < b.Key
		}
	}
	return func(a, b rankedMatch) bool {
		if a.runes != b.runes {
			return a.runes < b.runes
		}
		return a.Key < b.Key
	}
}

// matchHeap keeps the worst retained match at the root so that a better
// one can replace it in O(log n).
type matchHeap struct {
	items  []rankedMatch
	better func(a, b rankedMatch) bool
}

func (h *matchHeap) Len() int           { return len(h.items) }
func (h *matchHeap) Less(i, j int) bool { return h.better(h.items[j], h.items[i]) }
func (h *matchHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *matchHeap) Push(x any)         { h.items = append(h.items, x.(rankedMatch)) }

func (h *matchHeap) Pop() any {
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return last
}

// offer adds m, evicting the worst match once n are held. n <= 0 keeps
// everything.
func (h *matchHeap) offer(m rankedMatch, n int) {
	switch {
	case n <= 0:
		h.items = append(h.items, m)
	case len(h.items) < n:
		heap.Push(h, m)
	case h.better(m, h.items[0]):
		h.items[0] = m
		heap.Fix(h, 0)
	}
}

func (h *matchHeap) sorted() []PrefixMatch {
	sort.Slice(h.items, func(i, j int) bool { return h.better(h.items[i], h.items[j]) })
	out := make([]PrefixMatch, len(h.items))
	for i, m := range h.items {
		out[i] = m.PrefixMatch
	}
	return out
}
