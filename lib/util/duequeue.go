package util

import (
	"container/heap"
	"strconv"
)

// DueItem is one entry of a DueQueue: a record id and its due time in unix
// seconds. Items with equal due times are ordered by id.
type DueItem struct {
	Key   uint64 // Record id
	Due   int64  // Due time in unix seconds
	index int    // Index in the heap, maintained by the heap package
}

func (i *DueItem) String() string {
	return "{Key: " + strconv.FormatUint(i.Key, 10) + ", Due: " + strconv.FormatInt(i.Due, 10) + "}"
}

// DueQueue is a min-heap ordered by due time that also supports access by
// record id.
//
//	q := NewDueQueue()
//	q.Add(7, due.Unix())
//	q.Add(9, earlier.Unix())
//	next, _ := q.PopItem() // -> key 9
//
// Push, Pop and Remove are O(log n), lookups by key are O(1).
type DueQueue struct {
	items    []*DueItem          // The heap slice
	itemsMap map[uint64]*DueItem // Key -> item
}

// NewDueQueue creates an empty queue ready for use
func NewDueQueue() *DueQueue {
	q := &DueQueue{
		items:    make([]*DueItem, 0),
		itemsMap: make(map[uint64]*DueItem),
	}
	heap.Init(q)
	return q
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

func (q *DueQueue) Len() int { return len(q.items) }

func (q *DueQueue) Less(i, j int) bool {
	if q.items[i].Due == q.items[j].Due {
		return q.items[i].Key < q.items[j].Key
	}
	return q.items[i].Due < q.items[j].Due
}

func (q *DueQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

// Push is called by the heap package, use Add instead
func (q *DueQueue) Push(x any) {
	it := x.(*DueItem)
	it.index = len(q.items)
	q.items = append(q.items, it)
	q.itemsMap[it.Key] = it
}

// Pop is called by the heap package, use PopItem instead
func (q *DueQueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	q.items = old[:n-1]
	delete(q.itemsMap, it.Key)
	return it
}

// --------------------------------------------------------------------------
// Key based access
// --------------------------------------------------------------------------

// Add inserts key with the given due time or moves an existing key
func (q *DueQueue) Add(key uint64, due int64) {
	if it, exists := q.itemsMap[key]; exists {
		it.Due = due
		heap.Fix(q, it.index)
		return
	}
	heap.Push(q, &DueItem{Key: key, Due: due})
}

// PopItem removes and returns the earliest item
func (q *DueQueue) PopItem() (DueItem, bool) {
	if len(q.items) == 0 {
		return DueItem{}, false
	}
	it := heap.Pop(q).(*DueItem)
	return *it, true
}

// Remove deletes key from the queue and returns its due time
func (q *DueQueue) Remove(key uint64) (int64, bool) {
	it, exists := q.itemsMap[key]
	if !exists {
		return 0, false
	}
	heap.Remove(q, it.index)
	return it.Due, true
}

// Peek returns the earliest item without removing it
func (q *DueQueue) Peek() (DueItem, bool) {
	if len(q.items) == 0 {
		return DueItem{}, false
	}
	return *q.items[0], true
}

// Contains reports whether key is queued
func (q *DueQueue) Contains(key uint64) bool {
	_, exists := q.itemsMap[key]
	return exists
}

// Get returns the queued item for key
func (q *DueQueue) Get(key uint64) (DueItem, bool) {
	it, exists := q.itemsMap[key]
	if !exists {
		return DueItem{}, false
	}
	return *it, true
}
