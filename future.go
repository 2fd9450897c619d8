package taskgraph

// Future is a typed handle to the result of a [Task]. It wraps a *Task
// rather than embedding one, keeping the generic result plumbing (typed
// value slot, typed Get) separate from the untyped task
// state machine, per spec.md §4.4.
type Future[T any] struct {
	task  *Task
	value T
}

// newFuture wraps produce in a Task that stores its result into the
// future's value slot on success.
func newFuture[T any](produce func() (T, error)) *Future[T] {
	f := &Future[T]{}
	f.task = newTask(func() error {
		v, err := produce()
		if err != nil {
			return err
		}
		f.value = v
		return nil
	})
	return f
}

// Task returns the underlying task, for attaching dependencies/triggers/a
// time trigger, or for submission via [Executor.Submit].
func (f *Future[T]) Task() *Task {
	return f.task
}

// Get blocks until the future's task finishes, then returns its value and
// nil (on [Completed]), the zero value and a [*FailureError] (on
// [Failed]), or the zero value and a [*CanceledError] (on [Canceled]).
func (f *Future[T]) Get() (T, error) {
	f.task.Wait()
	switch f.task.Status() {
	case Completed:
		return f.value, nil
	case Canceled:
		var zero T
		return zero, &CanceledError{}
	default: // Failed
		var zero T
		return zero, f.task.GetError()
	}
}
