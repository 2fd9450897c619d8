package taskgraph

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work with a lifecycle state machine, executed at most
// once by an [Executor] worker once its dependencies, triggers, and any
// time trigger all permit it. See the package doc and spec.md §4.2 for the
// full transition table.
//
// A Task is created unattached (status [Created]) and gains an executor
// binding exactly once, via [Executor.Submit]. Dependencies, triggers, and
// a time trigger may only be attached while the task has not started
// (status [Created] or [Timered]); the attach methods panic otherwise.
type Task struct {
	id string

	mu     sync.RWMutex
	status Status
	err    error
	done   chan struct{}

	depCount         *int
	dependants       []*Task
	triggerArmed     *bool
	triggered        []*Task
	timeTrigger      *time.Time
	timeTriggerFired bool

	executor *Executor
	run      func() error
	log      Logger
}

// newTask constructs an unattached task around run. run is invoked by a
// worker exactly once, if the task reaches [Pending] rather than
// [Canceled].
func newTask(run func() error) *Task {
	return &Task{
		id:     uuid.NewString(),
		status: Created,
		done:   make(chan struct{}),
		run:    run,
	}
}

// ID returns the task's unique identifier, assigned at construction.
func (t *Task) ID() string {
	return t.id
}

// Status returns the task's current lifecycle status.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsCompleted reports whether the task finished in the [Completed] state.
func (t *Task) IsCompleted() bool { return t.Status() == Completed }

// IsFailed reports whether the task finished in the [Failed] state.
func (t *Task) IsFailed() bool { return t.Status() == Failed }

// IsCanceled reports whether the task finished in the [Canceled] state.
func (t *Task) IsCanceled() bool { return t.Status() == Canceled }

// IsFinished reports whether the task has reached any terminal state.
func (t *Task) IsFinished() bool { return t.Status().Finished() }

// GetError returns the opaque failure value stored when the task finished
// in the [Failed] state, or nil otherwise (including for [Completed] and
// [Canceled] tasks — cancellation is reported separately, via
// [Future.Get]/[CanceledError], not through GetError).
func (t *Task) GetError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Wait blocks until the task reaches a terminal state. It returns
// immediately, forever, once that has happened (spec.md §3 invariant 6).
func (t *Task) Wait() {
	<-t.done
}

// AddDependency registers dep as a dependency: t will not become ready
// until dep (and every other dependency/trigger gate) has finished.
// Legal only while t is [Created] or [Timered]; panics otherwise (spec.md
// §7, "Misuse").
//
// If dep has already finished, nothing is recorded — dep cannot
// "un-finish", so ordering is preserved without ever incrementing t's
// counter for it.
func (t *Task) AddDependency(dep *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.started() {
		panic("taskgraph: AddDependency on a started task")
	}
	n := 0
	if t.depCount != nil {
		n = *t.depCount
	}
	if dep.addDependant(t) {
		n++
		t.depCount = &n
	}
}

// AddTrigger registers dep as a trigger: t becomes ready as soon as any of
// its triggers finishes, provided its dependencies (which must ALL finish)
// are also done. Legal only while t is [Created] or [Timered]; panics otherwise.
//
// If dep has already finished, t's trigger flag is armed immediately and
// t's readiness is re-evaluated synchronously (which may submit t, if it
// is already executor-bound and otherwise ready).
func (t *Task) AddTrigger(dep *Task) {
	t.mu.Lock()
	if t.status.started() {
		t.mu.Unlock()
		panic("taskgraph: AddTrigger on a started task")
	}
	if t.triggerArmed == nil {
		armed := false
		t.triggerArmed = &armed
	}
	if !dep.addTriggered(t) {
		armed := true
		t.triggerArmed = &armed
		t.trySubmitLocked() // unlocks t.mu internally
		return
	}
	t.mu.Unlock()
}

// SetTimeTrigger records an absolute deadline at which t becomes ready
// (subject to any other gates also being open). Legal only while t is
// [Created] or [Timered]; panics otherwise. Takes effect once t is bound
// to an executor via [Executor.Submit].
func (t *Task) SetTimeTrigger(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.started() {
		panic("taskgraph: SetTimeTrigger on a started task")
	}
	t.timeTrigger = &at
}

// Cancel transitions an unstarted task ([Created] or [Timered]) directly
// to [Canceled] and runs finish-propagation. It is a no-op on a task that
// has already started or finished — there is no way to interrupt a
// running task.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.status.started() {
		t.mu.Unlock()
		return
	}
	t.status = Canceled
	t.finishLocked() // unlocks t.mu internally
}

// addDependant registers dependant as a back-reference unless t has
// already finished. Returns whether the registration happened; the
// caller uses this to decide whether to count the edge at all.
func (t *Task) addDependant(dependant *Task) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Finished() {
		return false
	}
	t.dependants = append(t.dependants, dependant)
	return true
}

// addTriggered registers triggered as a back-reference unless t has
// already finished.
func (t *Task) addTriggered(triggered *Task) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Finished() {
		return false
	}
	t.triggered = append(t.triggered, triggered)
	return true
}

// removeDependency is invoked by a finishing dependency to decrement t's
// dependency counter, re-submitting t once it reaches zero. Panics if t
// never had a dependency counter — a programmer error (spec.md §7).
func (t *Task) removeDependency() {
	t.mu.Lock()
	if t.depCount == nil {
		t.mu.Unlock()
		panic("taskgraph: removeDependency on a task with no dependency count")
	}
	n := *t.depCount - 1
	t.depCount = &n
	if n == 0 {
		t.trySubmitLocked() // unlocks t.mu internally
		return
	}
	t.mu.Unlock()
}

// arm is invoked by a finishing trigger to mark t's trigger flag true and
// attempt submission.
func (t *Task) arm() {
	t.mu.Lock()
	armed := true
	t.triggerArmed = &armed
	t.trySubmitLocked() // unlocks t.mu internally
}

// readyLocked implements the readiness predicate of spec.md §4.2: bound to
// an executor, every dependency finished (count absent-or-zero), some
// trigger fired or none were ever attached, and not the bare-time-trigger
// degenerate case (a pure deadline task must wait for the deadline even
// though it has no other open gates).
func (t *Task) readyLocked() bool {
	if t.executor == nil {
		return false
	}
	depsOpen := t.depCount == nil || *t.depCount == 0
	triggersOpen := t.triggerArmed == nil || *t.triggerArmed
	bareTimeTrigger := t.depCount == nil && t.triggerArmed == nil && t.timeTrigger != nil && !t.timeTriggerFired
	return depsOpen && triggersOpen && !bareTimeTrigger
}

// trySubmitLocked submits t to its executor's ready queue if it is
// currently Created or Timered and readyLocked(). Must be called with
// t.mu held; ALWAYS returns with t.mu unlocked, on every path.
func (t *Task) trySubmitLocked() {
	if t.status != Created && t.status != Timered {
		t.mu.Unlock()
		return
	}
	if !t.readyLocked() {
		t.mu.Unlock()
		return
	}
	t.status = Pending
	ex := t.executor
	id := t.id
	st := t.status
	log := t.log
	t.mu.Unlock()

	logTaskEvent(log, "task pending", id, st)
	if !ex.enqueue(t) {
		t.mu.Lock()
		t.status = Canceled
		t.finishLocked() // unlocks t.mu internally
	}
}

// bind attaches t to ex exactly once. If t carries a time trigger, it
// transitions to Timered and is handed to the timer heap; its readiness
// is then (re-)evaluated, which may submit it immediately if the
// degenerate bare-timer case doesn't apply (e.g. it also has triggers
// that already fired).
func (t *Task) bind(ex *Executor) {
	t.mu.Lock()
	if t.executor != nil {
		t.mu.Unlock()
		panic("taskgraph: task already bound to an executor")
	}
	t.executor = ex
	t.log = ex.opts.logger
	if t.timeTrigger != nil && t.status == Created {
		t.status = Timered
		deadline := *t.timeTrigger
		t.mu.Unlock()
		ex.scheduleAt(deadline, t)
		t.mu.Lock()
	}
	t.trySubmitLocked() // unlocks t.mu internally
}

// deadlineFired is invoked by the executor's timer dispatch once t's time
// trigger elapses: it advances Timered -> Pending (subject to readiness;
// a pure time-trigger task has no other gates blocking it at this point,
// per spec.md's readiness predicate).
func (t *Task) deadlineFired() {
	t.mu.Lock()
	t.timeTriggerFired = true
	t.trySubmitLocked() // unlocks t.mu internally
}

// markInProgress transitions Pending -> InProgress. Returns false if the
// task is no longer Pending (e.g. it was canceled while queued), in which
// case the caller must discard it rather than run it.
func (t *Task) markInProgress() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != Pending {
		return false
	}
	t.status = InProgress
	return true
}

// finish transitions t to Completed (err == nil) or Failed (err != nil)
// and runs finish-propagation.
func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	if err != nil {
		t.status = Failed
	} else {
		t.status = Completed
	}
	t.finishLocked() // unlocks t.mu internally
}

// finishLocked performs the terminal-state bookkeeping common to Cancel
// and finish: it closes t.done (broadcasting to every Wait/Get caller),
// then walks dependants/triggered WITHOUT holding t.mu, to avoid lock
// inversion when those walks re-enter peer tasks' locks (spec.md §4.2,
// §5). Must be called with t.mu held; ALWAYS returns with it unlocked.
func (t *Task) finishLocked() {
	dependants := t.dependants
	triggered := t.triggered
	log := t.log
	id := t.id
	st := t.status
	close(t.done)
	t.mu.Unlock()

	logTaskEvent(log, "task finished", id, st)
	for _, d := range dependants {
		d.removeDependency()
	}
	for _, tr := range triggered {
		tr.arm()
	}
}

// cancelQueued transitions a still-[Pending] task directly to [Canceled].
// It is distinct from the public [Task.Cancel], which only acts on
// [Created]/[Timered] tasks: spec.md's Pending -> Canceled edge exists
// only for tasks an executor is discarding from its ready queue during
// shutdown, and is not part of the caller-facing cancellation API.
func (t *Task) cancelQueued() {
	t.mu.Lock()
	if t.status != Pending {
		t.mu.Unlock()
		return
	}
	t.status = Canceled
	t.finishLocked() // unlocks t.mu internally
}
