package taskgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerHeapOrdersByDeadline(t *testing.T) {
	h := newTimerHeap(nil)
	defer h.stop()

	base := time.Now()
	late := &Task{id: "late"}
	mid := &Task{id: "mid"}
	early := &Task{id: "early"}

	h.push(base.Add(30*time.Millisecond), late)
	h.push(base.Add(20*time.Millisecond), mid)
	h.push(base.Add(10*time.Millisecond), early)

	first, ok := h.pop()
	require.True(t, ok)
	assert.Same(t, early, first)

	second, ok := h.pop()
	require.True(t, ok)
	assert.Same(t, mid, second)

	third, ok := h.pop()
	require.True(t, ok)
	assert.Same(t, late, third)
}

func TestTimerHeapRepeeksOnEarlierPush(t *testing.T) {
	h := newTimerHeap(nil)
	defer h.stop()

	slow := &Task{id: "slow"}
	fast := &Task{id: "fast"}

	h.push(time.Now().Add(200*time.Millisecond), slow)
	go func() {
		time.Sleep(10 * time.Millisecond)
		h.push(time.Now().Add(5*time.Millisecond), fast)
	}()

	task, ok := h.pop()
	require.True(t, ok)
	assert.Same(t, fast, task)
}

func TestTimerHeapStopUnblocksWaiters(t *testing.T) {
	h := newTimerHeap(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := h.pop()
		assert.False(t, ok)
	}()

	time.Sleep(10 * time.Millisecond)
	h.stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not unblock a waiting pop")
	}
}
