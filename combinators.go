package taskgraph

import (
	"errors"
	"time"
)

// errNoSourceFinished is the failure cause of a WhenFirst future that runs
// with no finished source, which happens when it is given no sources at all.
var errNoSourceFinished = errors.New("taskgraph: whenFirst ran with no finished source")

// Invoke submits a future wrapping f for immediate execution on ex. It is
// the base case of the combinator family: no dependencies, no triggers,
// no time trigger.
func Invoke[T any](ex *Executor, f func() (T, error)) *Future[T] {
	fut := newFuture(f)
	ex.Submit(fut.Task())
	return fut
}

// Then submits a future that becomes ready once p finishes, producing
// f's result. f is expected to read p.Get() itself (the dependency edge
// only governs readiness; the value is threaded through the closure, per
// spec.md §4.5). Because dependency finish never re-checks p's outcome,
// a failed p still lets the continuation run, and f naturally surfaces
// that failure by propagating whatever p.Get() returns.
func Then[T, U any](ex *Executor, p *Future[T], f func() (U, error)) *Future[U] {
	fut := newFuture(f)
	fut.Task().AddDependency(p.Task())
	ex.Submit(fut.Task())
	return fut
}

// WhenAll submits a future that becomes ready once every source in ps has
// finished, producing their results in the same order as ps. A failed
// source surfaces as this future's own failure, since the producer reads
// each source via Get.
func WhenAll[T any](ex *Executor, ps []*Future[T]) *Future[[]T] {
	fut := newFuture(func() ([]T, error) {
		results := make([]T, len(ps))
		for i, p := range ps {
			v, err := p.Get()
			if err != nil {
				return nil, err
			}
			results[i] = v
		}
		return results, nil
	})
	for _, p := range ps {
		fut.Task().AddDependency(p.Task())
	}
	ex.Submit(fut.Task())
	return fut
}

// WhenFirst submits a future that becomes ready as soon as any source in
// ps finishes (a trigger from each, not a dependency), producing the
// result of whichever source is found finished first, scanning ps in
// order. Sources that finish later do not affect the result.
func WhenFirst[T any](ex *Executor, ps []*Future[T]) *Future[T] {
	fut := newFuture(func() (T, error) {
		for _, p := range ps {
			if p.Task().IsFinished() {
				return p.Get()
			}
		}
		// Reached only when ps is empty: with no trigger attached the task
		// is ready at once. Otherwise at least one trigger has armed.
		var zero T
		return zero, &FailureError{Cause: errNoSourceFinished}
	})
	for _, p := range ps {
		fut.Task().AddTrigger(p.Task())
	}
	ex.Submit(fut.Task())
	return fut
}

// WhenAllBeforeDeadline submits a future gated solely on a time trigger
// at deadline. When it fires, the producer samples ps in order and
// collects the values of whichever have already completed by then,
// silently omitting the rest (spec.md §4.5): unfinished sources and
// finished ones that failed or were canceled. If none have a value in
// time, it produces an empty, non-nil slice.
func WhenAllBeforeDeadline[T any](ex *Executor, ps []*Future[T], deadline time.Time) *Future[[]T] {
	fut := newFuture(func() ([]T, error) {
		results := make([]T, 0, len(ps))
		for _, p := range ps {
			if !p.Task().IsFinished() {
				continue
			}
			v, err := p.Get()
			if err != nil {
				continue
			}
			results = append(results, v)
		}
		return results, nil
	})
	fut.Task().SetTimeTrigger(deadline)
	ex.Submit(fut.Task())
	return fut
}
