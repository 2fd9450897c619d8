package taskgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureGetCompleted(t *testing.T) {
	ex := NewThreadPoolExecutor(1)
	defer ex.Close()

	f := Invoke(ex, func() (string, error) { return "hello", nil })
	v, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestFutureGetFailed(t *testing.T) {
	ex := NewThreadPoolExecutor(1)
	defer ex.Close()

	boom := errors.New("boom")
	f := Invoke(ex, func() (string, error) { return "", boom })
	v, err := f.Get()
	assert.Equal(t, "", v)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestFutureGetCanceled(t *testing.T) {
	ex := NewThreadPoolExecutor(1)
	defer ex.Close()

	f := newFuture(func() (int, error) { return 7, nil })
	f.Task().Cancel()
	ex.Submit(f.Task())

	v, err := f.Get()
	assert.Equal(t, 0, v)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}
