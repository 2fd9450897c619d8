package taskgraph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskLinearChain(t *testing.T) {
	ex := NewThreadPoolExecutor(2)
	defer ex.Close()

	a := Invoke(ex, func() (int, error) { return 1, nil })
	b := Then(ex, a, func() (int, error) {
		v, err := a.Get()
		return v + 1, err
	})
	c := Then(ex, b, func() (int, error) {
		v, err := b.Get()
		return v + 1, err
	})

	v, err := c.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestTaskDiamond(t *testing.T) {
	ex := NewThreadPoolExecutor(4)
	defer ex.Close()

	a := Invoke(ex, func() (int, error) { return 1, nil })
	b := Then(ex, a, func() (int, error) {
		v, _ := a.Get()
		return v * 10, nil
	})
	c := Then(ex, a, func() (int, error) {
		v, _ := a.Get()
		return v * 100, nil
	})
	d := WhenAll(ex, []*Future[int]{b, c})

	results, err := d.Get()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 10, results[0])
	assert.Equal(t, 100, results[1])
}

func TestTaskCancelBeforeStart(t *testing.T) {
	ex := NewThreadPoolExecutor(1)
	defer ex.Close()

	ran := make(chan struct{})
	task := newTask(func() error {
		close(ran)
		return nil
	})
	task.Cancel()
	ex.Submit(task)

	task.Wait()
	assert.Equal(t, Canceled, task.Status())
	select {
	case <-ran:
		t.Fatal("canceled task should never run")
	default:
	}
}

func TestTaskFailurePropagatesThroughDependency(t *testing.T) {
	ex := NewThreadPoolExecutor(2)
	defer ex.Close()

	boom := errors.New("boom")
	a := Invoke(ex, func() (int, error) { return 0, boom })
	b := Then(ex, a, func() (int, error) {
		_, err := a.Get()
		return 0, err
	})

	_, err := b.Get()
	require.Error(t, err)
	assert.True(t, IsFailure(err))
	assert.ErrorIs(t, err, boom)

	assert.True(t, a.Task().IsFailed())
	assert.True(t, b.Task().IsFailed())
}

func TestTaskAddDependencyAfterStartPanics(t *testing.T) {
	ex := NewThreadPoolExecutor(1)
	defer ex.Close()

	a := Invoke(ex, func() (int, error) { return 1, nil })
	a.Task().Wait()

	other := newTask(func() error { return nil })
	other.status = InProgress // simulate a started task without a real run

	assert.Panics(t, func() {
		other.AddDependency(a.Task())
	})
}

func TestTaskWaitReturnsRepeatedly(t *testing.T) {
	ex := NewThreadPoolExecutor(1)
	defer ex.Close()

	a := Invoke(ex, func() (int, error) { return 42, nil })
	a.Task().Wait()
	a.Task().Wait()
	v, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestTaskTimeTriggerAlone(t *testing.T) {
	ex := NewThreadPoolExecutor(1)
	defer ex.Close()

	task := newTask(func() error { return nil })
	task.SetTimeTrigger(time.Now().Add(20 * time.Millisecond))
	ex.Submit(task)

	select {
	case <-task.done:
		assert.True(t, task.IsCompleted())
	case <-time.After(2 * time.Second):
		t.Fatal("bare time-trigger task never became ready")
	}
}
