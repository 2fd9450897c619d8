// Package taskgraph provides a thread-pool task-graph executor: tasks
// become ready to run through data dependencies ("all of"), triggers ("any
// of"), and absolute-time deadlines, and a [Future] layer gives typed,
// blocking access to results.
//
// # Architecture
//
// A [Task] carries its own lifecycle state machine (see [Status]) and its
// dependency/trigger bookkeeping. An [Executor] owns a FIFO ready queue
// serviced by a fixed-size worker pool, plus a [timerHeap] that feeds timed
// tasks into that same queue once their deadline elapses. [Future] wraps a
// [Task] with a producer function and a typed result slot.
//
// Combinators ([Invoke], [Then], [WhenAll], [WhenFirst],
// [WhenAllBeforeDeadline]) are built entirely out of [Task] and [Future];
// they introduce no new scheduling machinery.
//
// # Thread Safety
//
// [Executor.Submit], [Task.Cancel], [Task.Wait], and every [Future.Get] are
// safe to call from any goroutine. A task may only attach dependencies,
// triggers, or a time trigger before it has started (while its status is
// [Created] or [Timered]).
//
// # Usage
//
//	ex := taskgraph.NewThreadPoolExecutor(4)
//	defer ex.WaitShutdown()
//
//	a := taskgraph.Invoke(ex, func() (int, error) { return 1, nil })
//	b := taskgraph.Then(ex, a, func() (int, error) {
//		v, err := a.Get()
//		return v + 1, err
//	})
//	v, err := b.Get()
package taskgraph
