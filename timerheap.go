package taskgraph

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is a single (deadline, task) pair tracked by the timer heap.
type timerEntry struct {
	deadline time.Time
	task     *Task
}

// timerEntryHeap is a min-heap of timerEntry ordered by ascending
// deadline, implementing heap.Interface. Ties among equal deadlines break
// arbitrarily; callers must not depend on ordering among them (spec.md
// §4.1).
type timerEntryHeap []timerEntry

func (h timerEntryHeap) Len() int            { return len(h) }
func (h timerEntryHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerEntryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerEntryHeap) Push(x any)         { *h = append(*h, x.(timerEntry)) }
func (h *timerEntryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// timerHeap is a blocking, deadline-ordered priority queue of tasks. It is
// the single collaborator between [Task.bind]'s time-trigger handling and
// the executor's timer-dispatch goroutines.
type timerHeap struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries timerEntryHeap
	stopped bool
	now     func() time.Time
}

// newTimerHeap constructs an empty, running timer heap. now defaults to
// time.Now if nil.
func newTimerHeap(now func() time.Time) *timerHeap {
	if now == nil {
		now = time.Now
	}
	h := &timerHeap{now: now}
	h.cond = sync.NewCond(&h.mu)
	heap.Init(&h.entries)
	return h
}

// push inserts (deadline, task) and wakes one waiter.
func (h *timerHeap) push(deadline time.Time, task *Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	heap.Push(&h.entries, timerEntry{deadline: deadline, task: task})
	h.cond.Signal()
}

// pop blocks until the earliest deadline has elapsed and returns its task,
// or returns (nil, false) once the heap has been stopped. On every
// wakeup it re-peeks the top entry, since a new, earlier-deadline push may
// have arrived while it slept (spec.md §4.1, §9).
func (h *timerHeap) pop() (*Task, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		for !h.stopped && len(h.entries) == 0 {
			h.cond.Wait()
		}
		if h.stopped {
			return nil, false
		}

		top := h.entries[0]
		// wait is computed against the injected clock (for deterministic
		// tests); the actual sleep below still uses the real wall clock,
		// so WithClock is only meaningful when paired with deadlines
		// computed relative to that same clock.
		wait := top.deadline.Sub(h.now())
		if wait <= 0 {
			heap.Pop(&h.entries)
			return top.task, true
		}

		// Sleep for at most `wait`, but re-check on every Cond.Signal
		// (a fresher, earlier deadline may have been pushed) by racing
		// the sleep against a wakeup via a private timer goroutine.
		woke := make(chan struct{})
		timer := time.AfterFunc(wait, func() {
			h.mu.Lock()
			h.cond.Broadcast()
			h.mu.Unlock()
			close(woke)
		})
		h.cond.Wait()
		timer.Stop()
		select {
		case <-woke:
		default:
		}
		// loop around: re-peek, since either the timer fired (top is now
		// due) or some other goroutine pushed/stopped the heap.
	}
}

// stop marks the heap stopped and wakes every waiter; subsequent pop
// calls return immediately with (nil, false). Idempotent.
func (h *timerHeap) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	h.cond.Broadcast()
}
