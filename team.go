package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"go.uber.org/multierr"
)

// TeamStatus combines the queue and pool snapshots of a team. The two
// halves are each internally consistent but taken one after the
// other.
type TeamStatus struct {
	Queue     QueueStatus
	Operators PoolStatus
}

// Team is a self-scaling group of operators working a shared task
// queue.
//
// The team owns the queue, the operator pool, and a manager
// controller. The manager polls queue and pool status on a fixed
// interval and hires or dismisses operators to keep throughput
// matched to load; see TeamOptions for the tuning knobs. Operators
// hold only a reference to the shared queue, never to the team
// itself.
type Team struct {
	opts      TeamOptions
	queue     *TaskQueue
	operators *Workers
	manager   *Controller

	state    atomic.Int32
	draining atomic.Bool
}

// NewTeam creates a team. The shared queue exists from construction,
// so tasks may be pushed before the team is hired; they sit in the
// queue until operators start.
func NewTeam(opts TeamOptions) (*Team, error) {
	if opts.NewHandler == nil {
		return nil, ErrNoHandlerFactory
	}
	opts.FillDefaults()
	t := &Team{
		opts:      opts,
		queue:     NewTaskQueue(opts.QueueSize),
		operators: NewWorkers(),
	}
	t.manager = NewController(opts.Ctx, opts.Name+"/manager", t.manage)
	return t, nil
}

// Name returns the team's name.
func (t *Team) Name() string { return t.opts.Name }

// Queue exposes the team's shared queue.
func (t *Team) Queue() *TaskQueue { return t.queue }

// Push submits a payload at DefaultPriority.
func (t *Team) Push(payload any) error { return t.queue.Push(payload) }

// PushPriority submits a payload with an explicit priority.
func (t *Team) PushPriority(payload any, priority int) error {
	return t.queue.PushPriority(payload, priority)
}

// Status returns the current queue and pool snapshots.
func (t *Team) Status() TeamStatus {
	return TeamStatus{
		Queue:     t.queue.Status(),
		Operators: t.operators.Status(),
	}
}

// Hire starts the manager and the initial operators. Hiring twice
// returns ErrAlreadyHired.
func (t *Team) Hire() error {
	if !t.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return ErrAlreadyHired
	}
	if err := t.manager.Hire(); err != nil {
		t.state.Store(int32(StateStopped))
		return fmt.Errorf("pipeline: team %s: hiring manager: %w", t.opts.Name, err)
	}
	if _, err := t.HireOperators(t.opts.InitialOperators); err != nil {
		errs := multierr.Combine(
			fmt.Errorf("pipeline: team %s: hiring operators: %w", t.opts.Name, err),
			t.operators.DismissAll(),
			t.manager.Dismiss(),
		)
		t.state.Store(int32(StateStopped))
		return errs
	}
	return nil
}

// Dismiss tears the team down in order: finish every queued task,
// dismiss all operators (waiting out their in-flight tasks), dismiss
// the manager, close the queue. No submitted task is lost. Blocks
// until everything has stopped.
func (t *Team) Dismiss() error {
	if !t.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested)) {
		return ErrNotHired
	}
	// The manager keeps running until the end but stops scaling, so
	// it cannot rehire behind the drain.
	t.draining.Store(true)

	// A manager tick that read the draining flag before it was set can
	// still hire behind the first DismissAll, so the pool is swept once
	// more after the manager has joined.
	errs := multierr.Combine(
		t.FinishAllTasks(),
		t.operators.DismissAll(),
		t.manager.Dismiss(),
		t.operators.DismissAll(),
	)
	t.queue.Close()
	t.state.Store(int32(StateStopped))
	return errs
}

// FinishAllTasks blocks until the shared queue is empty. If the
// operator pool is ever empty while tasks remain, one operator is
// hired so the drain always makes progress.
func (t *Team) FinishAllTasks() error {
	for t.queue.Len() > 0 {
		if t.operators.Count() == 0 {
			if n, err := t.HireOperators(1); err != nil || n < 1 {
				return fmt.Errorf("pipeline: team %s: failed to hire operator to finish remaining tasks: %w",
					t.opts.Name, err)
			}
		}
		time.Sleep(t.opts.PollInterval)
	}
	return nil
}

// HireOperators hires n operators bound to the shared queue,
// returning how many were hired.
func (t *Team) HireOperators(n int) (int, error) {
	return t.operators.HireN(n, func() (Member, error) {
		handler := t.opts.NewHandler()
		if handler == nil {
			return nil, ErrNilHandler
		}
		op, err := NewOperator(handler, WorkerOptions{
			Ctx:        t.opts.Ctx,
			PopTimeout: t.opts.PopTimeout,
			Retry:      t.opts.Retry,
		})
		if err != nil {
			return nil, err
		}
		op.Bind(t.queue)
		return op, nil
	})
}

// DismissOperators dismisses up to n operators, idle ones first,
// returning how many were dismissed.
func (t *Team) DismissOperators(n int) (int, error) {
	return t.operators.DismissN(n)
}

// manage is the manager controller's loop: a fixed-interval poll of
// queue and pool status with at most one scaling action per tick.
//
// The idle-rate dead band keeps the pool steady under normal load,
// and the comparison of idle operators against queued tasks prevents
// scaling on a lightly loaded queue. One step per tick is
// deliberately conservative: slow to follow step changes in load, but
// free of oscillation.
func (t *Team) manage(ctx context.Context) {
	logger := lg.FromContext(ctx).With(lg.String("team", t.opts.Name))
	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if t.draining.Load() {
			continue
		}

		qs := t.queue.Status()
		ps := t.operators.Status()

		switch {
		case ps.IdleRate > t.opts.ShrinkThreshold &&
			ps.IdleCount > qs.Count &&
			ps.Count > t.opts.MinOperators:

			step := min(t.opts.ScaleStep, ps.Count-t.opts.MinOperators)
			n, err := t.DismissOperators(step)
			if err != nil {
				logger.Error("scale down failed", lg.Any("error", err))
			} else if n > 0 {
				logger.Info("scaled down",
					lg.Int("dismissed", n),
					lg.Int("operators", ps.Count-n),
					lg.Int("queued", qs.Count),
				)
			}

		case ps.IdleRate < t.opts.GrowThreshold &&
			ps.IdleCount < qs.Count &&
			ps.Count < t.opts.MaxOperators:

			step := min(t.opts.ScaleStep, t.opts.MaxOperators-ps.Count)
			n, err := t.HireOperators(step)
			if err != nil {
				logger.Error("scale up failed", lg.Any("error", err))
			} else if n > 0 {
				logger.Info("scaled up",
					lg.Int("hired", n),
					lg.Int("operators", ps.Count+n),
					lg.Int("queued", qs.Count),
				)
			}
		}
	}
}
