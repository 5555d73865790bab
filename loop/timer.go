package loop

import (
	"time"

	"github.com/addrummond/heap"
)

type timerEntry struct {
	when time.Time
	fn   func()
}

func (a *timerEntry) Cmp(b *timerEntry) int {
	return a.when.Compare(b.when)
}

// timerQueue orders scheduled callbacks by deadline. It is not safe for
// concurrent use; the owning Loop serializes access under its mutex.
type timerQueue struct {
	heap heap.Heap[timerEntry, heap.Min]
}

func (q *timerQueue) push(when time.Time, fn func()) {
	heap.PushOrderable(&q.heap, timerEntry{when: when, fn: fn})
}

// popDue removes and returns the earliest callback whose deadline has been
// reached.
func (q *timerQueue) popDue(now time.Time) (func(), bool) {
	entry, ok := heap.Peek(&q.heap)
	if !ok || entry.when.After(now) {
		return nil, false
	}
	entry, _ = heap.PopOrderable(&q.heap)
	return entry.fn, true
}

// untilNext reports how long until the earliest deadline, if any.
func (q *timerQueue) untilNext(now time.Time) (time.Duration, bool) {
	entry, ok := heap.Peek(&q.heap)
	if !ok {
		return 0, false
	}
	return entry.when.Sub(now), true
}
