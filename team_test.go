package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamRequiresHandlerFactory(t *testing.T) {
	_, err := NewTeam(TeamOptions{})
	assert.ErrorIs(t, err, ErrNoHandlerFactory)
}

func TestTeamLifecycle(t *testing.T) {
	team, err := NewTeam(TeamOptions{
		Name: "lifecycle",
		NewHandler: func() TaskHandler {
			return ProcessFunc(func(task *Task) error { return nil })
		},
		PollInterval: 10 * time.Millisecond,
		PopTimeout:   10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, team.Hire())
	assert.ErrorIs(t, team.Hire(), ErrAlreadyHired)

	st := team.Status()
	assert.Equal(t, 1, st.Operators.Count, "one initial operator by default")

	require.NoError(t, team.Dismiss())
	assert.ErrorIs(t, team.Dismiss(), ErrNotHired)
	assert.ErrorIs(t, team.Push("late"), ErrQueueClosed)
}

func TestTeamProcessesEveryTask(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = make(map[any]int)
	)
	team, err := NewTeam(TeamOptions{
		Name: "exactly-once",
		NewHandler: func() TaskHandler {
			return ProcessFunc(func(task *Task) error {
				mu.Lock()
				seen[task.Payload]++
				mu.Unlock()
				return nil
			})
		},
		InitialOperators: 3,
		PollInterval:     10 * time.Millisecond,
		PopTimeout:       10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, team.Hire())

	const tasks = 200
	for i := 0; i < tasks; i++ {
		require.NoError(t, team.Push(i))
	}

	// Dismiss drains the queue before stopping anyone.
	require.NoError(t, team.Dismiss())

	assert.Equal(t, 0, team.Queue().Len())
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, tasks)
	for payload, n := range seen {
		assert.Equalf(t, 1, n, "task %v processed %d times", payload, n)
	}
}

func TestTeamScalesUpUnderLoad(t *testing.T) {
	var wg sync.WaitGroup
	team, err := NewTeam(TeamOptions{
		Name: "burst",
		NewHandler: func() TaskHandler {
			return ProcessFunc(func(task *Task) error {
				time.Sleep(50 * time.Millisecond)
				wg.Done()
				return nil
			})
		},
		InitialOperators: 1,
		MaxOperators:     8,
		PollInterval:     5 * time.Millisecond,
		PopTimeout:       5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, team.Hire())

	const tasks = 120
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		require.NoError(t, team.Push(i))
	}

	// With one slow operator and a deep backlog the idle rate is 0,
	// so the manager must hire.
	waitFor(t, 3*time.Second, func() bool {
		return team.Status().Operators.Count > 1
	})
	st := team.Status()
	assert.Greater(t, st.Operators.Count, 1)
	assert.LessOrEqual(t, st.Operators.Count, 8)

	wg.Wait()

	// Once the backlog is gone everyone sits idle and the pool
	// shrinks back to the minimum of one.
	waitFor(t, 5*time.Second, func() bool {
		return team.Status().Operators.Count == 1
	})

	require.NoError(t, team.Dismiss())
	assert.Greater(t, team.Status().Operators.TotalCount, int64(1),
		"scaling must have hired beyond the initial operator")
}

func TestTeamRespectsMaxOperators(t *testing.T) {
	block := make(chan struct{})
	team, err := NewTeam(TeamOptions{
		Name: "capped",
		NewHandler: func() TaskHandler {
			return ProcessFunc(func(task *Task) error {
				<-block
				return nil
			})
		},
		InitialOperators: 1,
		MaxOperators:     3,
		PollInterval:     5 * time.Millisecond,
		PopTimeout:       5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, team.Hire())

	for i := 0; i < 100; i++ {
		require.NoError(t, team.Push(i))
	}

	waitFor(t, 3*time.Second, func() bool {
		return team.Status().Operators.Count == 3
	})

	// Give the manager a few more ticks; it must not exceed the cap.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, team.Status().Operators.Count)

	close(block)
	require.NoError(t, team.Dismiss())
}

func TestTeamDismissLeavesNoOperators(t *testing.T) {
	// Tight poll intervals maximise the chance of a manager tick racing
	// the teardown; the pool must be empty once Dismiss returns.
	for round := 0; round < 25; round++ {
		team, err := NewTeam(TeamOptions{
			Name: "teardown",
			NewHandler: func() TaskHandler {
				return ProcessFunc(func(task *Task) error { return nil })
			},
			InitialOperators: 2,
			PollInterval:     time.Millisecond,
			PopTimeout:       time.Millisecond,
		})
		require.NoError(t, err)
		require.NoError(t, team.Hire())

		for i := 0; i < 20; i++ {
			require.NoError(t, team.Push(i))
		}

		require.NoError(t, team.Dismiss())
		assert.Equal(t, 0, team.Status().Operators.Count,
			"round %d: operators left running after dismissal", round)
	}
}

func TestTeamStatusSnapshot(t *testing.T) {
	team, err := NewTeam(TeamOptions{
		Name: "status",
		NewHandler: func() TaskHandler {
			return ProcessFunc(func(task *Task) error { return nil })
		},
	})
	require.NoError(t, err)

	// Tasks may be pushed before the team is hired.
	require.NoError(t, team.Push("early"))
	st := team.Status()
	assert.Equal(t, 1, st.Queue.Count)
	assert.Equal(t, 0, st.Operators.Count)

	require.NoError(t, team.Hire())
	require.NoError(t, team.Dismiss())

	st = team.Status()
	assert.Equal(t, 0, st.Queue.Count, "dismiss drains the queue")
	assert.Equal(t, 0, st.Operators.Count)
	assert.GreaterOrEqual(t, st.Operators.PeakCount, 1)
}
