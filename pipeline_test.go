package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedUnit records hire/dismiss events into a shared log.
type orderedUnit struct {
	name    string
	log     *[]string
	mu      *sync.Mutex
	hireErr error
}

func (u *orderedUnit) Hire() error {
	if u.hireErr != nil {
		return u.hireErr
	}
	u.mu.Lock()
	*u.log = append(*u.log, "hire "+u.name)
	u.mu.Unlock()
	return nil
}

func (u *orderedUnit) Dismiss() error {
	u.mu.Lock()
	*u.log = append(*u.log, "dismiss "+u.name)
	u.mu.Unlock()
	return nil
}

func TestPipelineHireAndDismissOrder(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	unit := func(name string) *orderedUnit {
		return &orderedUnit{name: name, log: &log, mu: &mu}
	}

	p := NewPipeline(unit("team-a"), unit("team-b"))
	p.Add(unit("dispatcher"))

	require.NoError(t, p.Hire())
	assert.ErrorIs(t, p.Hire(), ErrAlreadyHired)

	require.NoError(t, p.Dismiss())
	assert.ErrorIs(t, p.Dismiss(), ErrNotHired)

	assert.Equal(t, []string{
		"hire team-a",
		"hire team-b",
		"hire dispatcher",
		"dismiss dispatcher",
		"dismiss team-b",
		"dismiss team-a",
	}, log)
}

func TestPipelineHireRollsBackOnFailure(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	hireErr := errors.New("unit exploded")
	units := []*orderedUnit{
		{name: "first", log: &log, mu: &mu},
		{name: "second", log: &log, mu: &mu},
		{name: "third", log: &log, mu: &mu, hireErr: hireErr},
	}

	p := NewPipeline(units[0], units[1], units[2])
	err := p.Hire()
	assert.ErrorIs(t, err, hireErr)

	assert.Equal(t, []string{
		"hire first",
		"hire second",
		"dismiss second",
		"dismiss first",
	}, log)

	// A failed hire leaves the pipeline unhired.
	assert.ErrorIs(t, p.Dismiss(), ErrNotHired)
}

func TestPipelineWithRealUnits(t *testing.T) {
	h := &recordingHandler{}
	doer, err := NewDoer(h, WorkerOptions{})
	require.NoError(t, err)

	team, err := NewTeam(TeamOptions{
		Name: "pipeline-team",
		NewHandler: func() TaskHandler {
			return ProcessFunc(func(task *Task) error { return nil })
		},
	})
	require.NoError(t, err)

	p := NewPipeline(doer, team)
	require.NoError(t, p.Hire())

	require.NoError(t, doer.Push("unit of work"))
	require.NoError(t, team.Push("shared work"))

	require.NoError(t, p.Dismiss())
	assert.Equal(t, []any{"unit of work"}, h.processed())
	assert.Equal(t, 0, team.Queue().Len())
}
