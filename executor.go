package taskgraph

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Executor is a fixed-size thread-pool scheduler: N workers consume a FIFO
// ready queue, and N timer-dispatch goroutines feed that same queue once a
// task's time trigger elapses. See spec.md §4.3.
//
// Construct one with [NewThreadPoolExecutor]. Shutdown is two-phased
// ([Executor.StartShutdown], [Executor.WaitShutdown]) and idempotent;
// [Executor.Close] performs both, for defer-based cleanup.
type Executor struct {
	id   string
	opts *executorOptions

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []*Task
	submitted map[*Task]struct{}
	shutdown  bool

	timers *timerHeap

	wg sync.WaitGroup

	startOnce sync.Once
	joinOnce  sync.Once
}

// NewThreadPoolExecutor constructs an Executor with n worker goroutines
// (and n timer-dispatch goroutines alongside them — the original repo's
// "one dispatch thread per worker" arrangement, which spec.md explicitly
// allows). n must be positive.
func NewThreadPoolExecutor(n int, opts ...Option) *Executor {
	if n <= 0 {
		panic("taskgraph: NewThreadPoolExecutor requires n > 0")
	}
	cfg := resolveExecutorOptions(opts)
	ex := &Executor{
		id:        uuid.NewString(),
		opts:      cfg,
		submitted: make(map[*Task]struct{}),
		timers:    newTimerHeap(cfg.now),
	}
	ex.cond = sync.NewCond(&ex.mu)
	if cfg.queueHint > 0 {
		ex.queue = make([]*Task, 0, cfg.queueHint)
	}

	logExecutorEvent(cfg.logger, fmt.Sprintf("executor starting with %d workers", n), ex.id)
	ex.wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go ex.workerLoop()
		go ex.timerDispatchLoop()
	}
	return ex
}

// ID returns the executor's unique identifier.
func (ex *Executor) ID() string {
	return ex.id
}

// Submit binds task to ex exactly once. If task's readiness gates are
// already open, it is immediately pushed to the ready queue; otherwise it
// waits for its dependencies/triggers/time trigger. Panics if task is
// already bound to an executor (spec.md §7, "Misuse").
func (ex *Executor) Submit(task *Task) {
	ex.mu.Lock()
	ex.submitted[task] = struct{}{}
	ex.mu.Unlock()
	task.bind(ex)
}

// enqueue pushes task onto the ready queue and wakes one worker, unless
// shutdown is already in effect, in which case it refuses (the caller —
// Task.trySubmitLocked — cancels task in response).
func (ex *Executor) enqueue(task *Task) bool {
	ex.mu.Lock()
	if ex.shutdown {
		ex.mu.Unlock()
		return false
	}
	ex.queue = append(ex.queue, task)
	ex.cond.Signal()
	ex.mu.Unlock()
	return true
}

// scheduleAt hands (deadline, task) to the timer heap.
func (ex *Executor) scheduleAt(deadline time.Time, task *Task) {
	ex.timers.push(deadline, task)
}

// workerLoop is one of n identical consumers of the ready queue.
func (ex *Executor) workerLoop() {
	defer ex.wg.Done()
	for {
		ex.mu.Lock()
		for len(ex.queue) == 0 && !ex.shutdown {
			ex.cond.Wait()
		}
		if ex.shutdown {
			ex.mu.Unlock()
			return
		}

		// Discard any head entries that were cancelled after being
		// queued (their markInProgress fails because they're no
		// longer Pending), per spec.md §4.3/§9's FIFO-skipping rule.
		for len(ex.queue) > 0 && !ex.queue[0].markInProgress() {
			ex.queue = ex.queue[1:]
		}
		if len(ex.queue) == 0 {
			ex.mu.Unlock()
			continue
		}
		task := ex.queue[0]
		ex.queue = ex.queue[1:]
		ex.mu.Unlock()

		logTaskEvent(ex.opts.logger, "task started", task.ID(), InProgress)
		err := ex.runTask(task)
		task.finish(err)

		ex.mu.Lock()
		delete(ex.submitted, task)
		ex.mu.Unlock()
	}
}

// runTask invokes task.run, converting a returned error or a recovered
// panic into a [*FailureError]. A nil return means the task completed
// successfully.
func (ex *Executor) runTask(task *Task) (result error) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				result = &FailureError{Cause: err}
			} else {
				result = &FailureError{Cause: fmt.Errorf("%v", r)}
			}
		}
	}()
	if err := task.run(); err != nil {
		return &FailureError{Cause: err}
	}
	return nil
}

// timerDispatchLoop is one of n identical consumers of the timer heap: it
// blocks in timers.pop() and hands each fired task's deadline event back
// to the task, which re-evaluates readiness and may enqueue it.
func (ex *Executor) timerDispatchLoop() {
	defer ex.wg.Done()
	for {
		task, ok := ex.timers.pop()
		if !ok {
			return
		}
		task.deadlineFired()
	}
}

// StartShutdown begins shutdown: no further submissions are accepted, the
// timer heap stops, and every worker blocked waiting for queue work wakes
// and exits. It does not wait for in-flight tasks or join goroutines — see
// [Executor.WaitShutdown]. Idempotent.
func (ex *Executor) StartShutdown() {
	ex.startOnce.Do(func() {
		ex.mu.Lock()
		ex.shutdown = true
		ex.mu.Unlock()
		ex.timers.stop()
		ex.cond.Broadcast()
		logExecutorEvent(ex.opts.logger, "shutdown started", ex.id)
	})
}

// WaitShutdown triggers [Executor.StartShutdown] (if not already done),
// joins every worker and timer-dispatch goroutine, then cancels every task
// still sitting in the ready queue and clears the submitted-task set.
// Idempotent, and safe to call concurrently with itself.
func (ex *Executor) WaitShutdown() {
	ex.StartShutdown()
	ex.joinOnce.Do(func() {
		ex.wg.Wait()

		ex.mu.Lock()
		remaining := ex.queue
		ex.queue = nil
		ex.mu.Unlock()
		for _, task := range remaining {
			task.cancelQueued()
		}

		ex.mu.Lock()
		ex.submitted = make(map[*Task]struct{})
		ex.mu.Unlock()
		logExecutorEvent(ex.opts.logger, "shutdown complete", ex.id)
	})
}

// Close performs both shutdown phases, blocking until complete. It is the
// Go analogue of the source's destructor, for defer-based cleanup.
func (ex *Executor) Close() error {
	ex.WaitShutdown()
	return nil
}
