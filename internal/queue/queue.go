// Package queue provides a generic binary heap with value storage.
package queue

// Heap is a binary heap ordered by a caller-supplied less function.
// The element for which less reports true against all others sits on top,
// so a "smaller first" comparison yields a min-heap.
//
// Heap is not safe for concurrent use.
type Heap[T any] struct {
	less  func(a, b T) bool
	items []T
}

// New creates an empty heap ordered by less with room for capacity items.
func New[T any](capacity int, less func(a, b T) bool) *Heap[T] {
	return &Heap[T]{
		less:  less,
		items: make([]T, 0, capacity),
	}
}

// Len returns the number of items in the heap.
func (h *Heap[T]) Len() int { return len(h.items) }

// Top returns the top item without removing it.
func (h *Heap[T]) Top() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (h *Heap[T]) Push(item T) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// Pop removes and returns the top item.
func (h *Heap[T]) Pop() (T, bool) {
	n := len(h.items)
	if n == 0 {
		var zero T
		return zero, false
	}
	root := h.items[0]
	last := h.items[n-1]
	var zero T
	h.items[n-1] = zero // release references held by the backing array
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, true
}

// Reset removes all items, keeping the allocated capacity.
func (h *Heap[T]) Reset() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(h.items[i], h.items[p]) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && h.less(h.items[r], h.items[l]) {
			best = r
		}
		if !h.less(h.items[best], h.items[i]) {
			return
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
