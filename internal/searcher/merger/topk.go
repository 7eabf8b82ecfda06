package merger

import "container/heap"

// TopK keeps the k best items pushed into it. better must be a strict
// total order; ties it cannot break make the kept set depend on push order.
type TopK[T any] struct {
	k     int
	items minHeap[T]
}

// NewTopK returns an empty container of capacity k. k <= 0 is treated as 1.
func NewTopK[T any](k int, better func(a, b T) bool) *TopK[T] {
	if k <= 0 {
		k = 1
	}
	return &TopK[T]{
		k:     k,
		items: minHeap[T]{better: better, data: make([]T, 0, k)},
	}
}

// Push offers x. Once the container is full, x replaces the current worst
// item only if it is better.
func (t *TopK[T]) Push(x T) {
	if len(t.items.data) < t.k {
		heap.Push(&t.items, x)
		return
	}
	if t.items.better(x, t.items.data[0]) {
		t.items.data[0] = x
		heap.Fix(&t.items, 0)
	}
}

// Len is the number of items held.
func (t *TopK[T]) Len() int { return len(t.items.data) }

// Drain empties the container and returns its items best first.
func (t *TopK[T]) Drain() []T {
	out := make([]T, len(t.items.data))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.items).(T)
	}
	return out
}

// minHeap keeps the worst item at the root.
type minHeap[T any] struct {
	better func(a, b T) bool
	data   []T
}

func (h minHeap[T]) Len() int { return len(h.data) }

func (h minHeap[T]) Less(i, j int) bool { return h.better(h.data[j], h.data[i]) }

func (h minHeap[T]) Swap(i, j int) { h.data[i], h.data[j] = h.data[j], h.data[i] }

func (h *minHeap[T]) Push(x any) {
	h.data = append(h.data, x.(T))
}

func (h *minHeap[T]) Pop() any {
	old := h.data
	n := len(old)
	item := old[n-1]
	h.data = old[:n-1]
	return item
}
