package model

import "sync"

// Item is an element of a PriorityQueue, the smallest item is popped first.
type Item interface {
	Less(Item) bool
}

// PriorityQueue is a binary min-heap safe for concurrent producers. The runner pushes
// the records of every symbol from its own goroutine and drains them afterwards in
// time order, ties broken by symbol.
//
// The heap lives in a flat slice: the children of the node at i sit at 2i+1 and 2i+2,
// its parent at (i-1)/2, and every node is smaller than or equal to its children, so
// the smallest item is always data[0].
type PriorityQueue struct {
	sync.Mutex
	data []Item
}

// NewPriorityQueue heapifies data in place. Sifting down every internal node, from the
// last one back to the root, builds the heap in linear time.
func NewPriorityQueue(data []Item) *PriorityQueue {
	q := &PriorityQueue{data: data}
	for i := (len(q.data) >> 1) - 1; i >= 0; i-- {
		q.down(i)
	}
	return q
}

// Push appends every item as a leaf and sifts it up to its place.
func (q *PriorityQueue) Push(items ...Item) {
	q.Lock()
	defer q.Unlock()

	for _, item := range items {
		q.data = append(q.data, item)
		q.up(len(q.data) - 1)
	}
}

// Pop removes and returns the smallest item, nil when the queue is empty. The last leaf
// takes the place of the root and sifts down to restore the heap.
func (q *PriorityQueue) Pop() Item {
	q.Lock()
	defer q.Unlock()

	n := len(q.data)
	if n == 0 {
		return nil
	}
	top := q.data[0]
	q.data[0] = q.data[n-1]
	// release the reference held by the shrunk backing array
	q.data[n-1] = nil
	q.data = q.data[:n-1]
	if len(q.data) > 0 {
		q.down(0)
	}
	return top
}

func (q *PriorityQueue) Len() int {
	q.Lock()
	defer q.Unlock()

	return len(q.data)
}

// Drain pops every item in order and hands it to consumer. Items pushed while
// draining are delivered as well.
func (q *PriorityQueue) Drain(consumer func(Item) error) error {
	for item := q.Pop(); item != nil; item = q.Pop() {
		if err := consumer(item); err != nil {
			return err
		}
	}
	return nil
}

// down moves the item at pos towards the leaves, swapping with its smaller child
// until both children are larger. The item is written once at its final position.
func (q *PriorityQueue) down(pos int) {
	n := len(q.data)
	item := q.data[pos]
	for {
		left := 2*pos + 1
		if left >= n {
			break
		}
		best := left
		if right := left + 1; right < n && q.data[right].Less(q.data[left]) {
			best = right
		}
		if !q.data[best].Less(item) {
			break
		}
		q.data[pos] = q.data[best]
		pos = best
	}
	q.data[pos] = item
}

// up moves the item at pos towards the root while it is smaller than its parent.
func (q *PriorityQueue) up(pos int) {
	item := q.data[pos]
	for pos > 0 {
		parent := (pos - 1) >> 1
		if !item.Less(q.data[parent]) {
			break
		}
		q.data[pos] = q.data[parent]
		pos = parent
	}
	q.data[pos] = item
}
