package admission

import (
	"container/heap"
)

// PriorityQueue is a max-heap of admission candidates keyed by PriorityKey.
// The queue is drained highest-price-first, so vote transactions (always
// price zero) drain last. Not safe for concurrent use; callers serialize
// access the same way the banking stage serializes its buffers.
type PriorityQueue struct {
	entries packetHeap
}

// NewPriorityQueue returns an empty queue with the given initial capacity.
func NewPriorityQueue(capacity int) *PriorityQueue {
	return &PriorityQueue{entries: make(packetHeap, 0, capacity)}
}

// Len returns the number of queued candidates.
func (q *PriorityQueue) Len() int {
	return len(q.entries)
}

// Push inserts a candidate.
func (q *PriorityQueue) Push(p *ImmutablePacket) {
	heap.Push(&q.entries, p)
}

// Pop removes and returns the highest-priced candidate, or nil if empty.
func (q *PriorityQueue) Pop() *ImmutablePacket {
	if len(q.entries) == 0 {
		return nil
	}
	return heap.Pop(&q.entries).(*ImmutablePacket)
}

// Peek returns the highest-priced candidate without removing it.
func (q *PriorityQueue) Peek() *ImmutablePacket {
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

// PopMin removes and returns the lowest-priced candidate. Used when evicting
// to make room under a capacity bound.
func (q *PriorityQueue) PopMin() *ImmutablePacket {
	n := len(q.entries)
	if n == 0 {
		return nil
	}
	// The minimum of a max-heap is among the leaves.
	minIdx := n / 2
	for i := minIdx + 1; i < n; i++ {
		if q.entries[i].PriorityKey().Less(q.entries[minIdx].PriorityKey()) {
			minIdx = i
		}
	}
	return heap.Remove(&q.entries, minIdx).(*ImmutablePacket)
}

type packetHeap []*ImmutablePacket

func (h packetHeap) Len() int { return len(h) }

func (h packetHeap) Less(i, j int) bool {
	// Max-heap: higher price surfaces first.
	return h[j].PriorityKey().Less(h[i].PriorityKey())
}

func (h packetHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *packetHeap) Push(x any) {
	*h = append(*h, x.(*ImmutablePacket))
}

func (h *packetHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return p
}
