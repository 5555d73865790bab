// Package loop provides the host concurrency runtime that promises run on: a
// single-threaded cooperative scheduler, single-assignment settlement cells
// and cancellable units of work.
//
// All callbacks posted to a Loop execute on one goroutine, FIFO, one at a
// time. Logical tasks interleave across loop turns but never run in
// parallel, so callback code needs no locking of its own.
package loop

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// Value describes the dynamic payload carried through cells and promises.
type Value interface{}

// Loop is a single-threaded cooperative scheduler. The zero value is not
// usable; create loops with New.
type Loop struct {
	mu     sync.Mutex
	queue  deque.Deque[func()]
	timers timerQueue
	closed bool

	wake chan struct{}
	done chan struct{}
}

// New creates a loop and starts its scheduler goroutine. The caller must
// eventually release it with Close.
func New() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post enqueues fn to run on the loop goroutine. It never invokes fn inline.
// Callbacks run in the order they were posted. Posting to a closed loop is a
// no-op.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue.PushBack(fn)
	l.mu.Unlock()
	l.wakeUp()
}

// After schedules fn to run on the loop goroutine no earlier than d from
// now. Scheduling on a closed loop is a no-op.
func (l *Loop) After(d time.Duration, fn func()) {
	when := time.Now().Add(d)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.timers.push(when, fn)
	l.mu.Unlock()
	l.wakeUp()
}

// Close drains the callbacks already queued, discards timers that have not
// fired yet, stops the scheduler goroutine and waits for it to exit. Close
// is idempotent. It must not be called from the loop goroutine itself.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.wakeUp()
	<-l.done
}

func (l *Loop) wakeUp() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		if l.queue.Len() > 0 {
			fn := l.queue.PopFront()
			l.mu.Unlock()
			fn()
			continue
		}

		if l.closed {
			l.mu.Unlock()
			return
		}

		now := time.Now()
		if fn, ok := l.timers.popDue(now); ok {
			l.mu.Unlock()
			fn()
			continue
		}

		wait, ok := l.timers.untilNext(now)
		l.mu.Unlock()

		if !ok {
			<-l.wake
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-l.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}
