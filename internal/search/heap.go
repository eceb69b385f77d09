package search

import "container/heap"

// resultHeap is a min-heap of Results ordered by the inverse of the
// final ranking, so the root is always the weakest result kept. Used
// for per-worker top-k selection.
type resultHeap []Result

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return resultLess(h[j], h[i]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(Result)) //nolint:errcheck // heap.Interface requires any; we only push Result
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// offer inserts r, evicting the weakest result once the heap holds k
// entries. k <= 0 means unbounded.
func (h *resultHeap) offer(r Result, k int) {
	if k <= 0 || h.Len() < k {
		heap.Push(h, r)
		return
	}
	if resultLess(r, (*h)[0]) {
		(*h)[0] = r
		heap.Fix(h, 0)
	}
}

func (h resultHeap) toSlice() []Result {
	out := make([]Result, len(h))
	copy(out, h)
	return out
}
