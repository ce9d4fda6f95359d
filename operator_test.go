package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorRequiresBinding(t *testing.T) {
	op, err := NewOperator(&recordingHandler{}, WorkerOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, op.Hire(), ErrNotBound)
}

func TestOperatorsShareQueue(t *testing.T) {
	q := NewTaskQueue(0)
	const tasks = 100
	for i := 0; i < tasks; i++ {
		require.NoError(t, q.Push(i))
	}

	var (
		mu   sync.Mutex
		seen = make(map[any]int, tasks)
	)
	handler := func() TaskHandler {
		return ProcessFunc(func(task *Task) error {
			mu.Lock()
			seen[task.Payload]++
			mu.Unlock()
			return nil
		})
	}

	ops := make([]*Operator, 3)
	for i := range ops {
		op, err := NewOperator(handler(), WorkerOptions{PopTimeout: 10 * time.Millisecond})
		require.NoError(t, err)
		op.Bind(q)
		require.NoError(t, op.Hire())
		ops[i] = op
	}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == tasks
	})
	for _, op := range ops {
		require.NoError(t, op.Dismiss())
	}

	for payload, n := range seen {
		assert.Equalf(t, 1, n, "task %v delivered %d times", payload, n)
	}
}

func TestOperatorDismissCompletesInFlightTask(t *testing.T) {
	q := NewTaskQueue(0)

	started := make(chan struct{})
	finished := make(chan struct{})
	op, err := NewOperator(ProcessFunc(func(task *Task) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		close(finished)
		return nil
	}), WorkerOptions{PopTimeout: 10 * time.Millisecond})
	require.NoError(t, err)
	op.Bind(q)
	require.NoError(t, op.Hire())

	require.NoError(t, q.Push("slow"))
	<-started

	require.NoError(t, op.Dismiss())

	// Dismiss must not have returned before the task finished.
	select {
	case <-finished:
	default:
		t.Fatal("dismiss returned while the task was still running")
	}
	assert.Equal(t, StateStopped, op.State())
}

func TestOperatorLeavesSharedQueueAlone(t *testing.T) {
	q := NewTaskQueue(0)
	op, err := NewOperator(ProcessFunc(func(task *Task) error { return nil }), WorkerOptions{
		PopTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	op.Bind(q)
	require.NoError(t, op.Hire())
	require.NoError(t, op.Dismiss())

	// Unlike a Doer, dismissing an operator must not close the
	// shared queue; other operators may still be using it.
	assert.NoError(t, q.Push("still open"))
}
