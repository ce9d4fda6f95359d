package pipeline

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
)

// WorkerState describes where a worker or controller is in its
// hire/dismiss lifecycle.
type WorkerState int32

const (
	StateCreated WorkerState = iota
	StateRunning
	StateStopRequested
	StateStopped
)

func (s WorkerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop-requested"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// worker carries the lifecycle shared by Doer and Operator: the state
// machine, the stop/done channels, the idle flag, and task execution
// with failure reporting and optional retries.
type worker struct {
	id         string
	ctx        context.Context
	handler    TaskHandler
	popTimeout time.Duration
	retry      *RetryPolicy
	pin        bool
	cpu        int

	state atomic.Int32
	idle  atomic.Bool
	stop  chan struct{}
	done  chan struct{}
}

func initWorker(w *worker, handler TaskHandler, opts WorkerOptions) {
	w.id = opts.ID
	w.ctx = opts.Ctx
	w.handler = handler
	w.popTimeout = opts.PopTimeout
	w.retry = opts.Retry
	w.pin = opts.Pin
	w.cpu = opts.CPU
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.idle.Store(true)
}

// ID returns the worker's identifier.
func (w *worker) ID() string { return w.id }

// IsIdle reports whether the worker is currently waiting for a task.
func (w *worker) IsIdle() bool { return w.idle.Load() }

// State returns the worker's lifecycle state.
func (w *worker) State() WorkerState { return WorkerState(w.state.Load()) }

// hire transitions the worker to running and starts its goroutine.
func (w *worker) hire(loop func()) error {
	if !w.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return ErrAlreadyHired
	}
	go w.run(loop)
	return nil
}

// dismiss signals the worker to stop and blocks until its goroutine
// has fully terminated. The in-flight task, if any, always completes.
func (w *worker) dismiss() error {
	if !w.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested)) {
		return ErrNotHired
	}
	close(w.stop)
	<-w.done
	return nil
}

func (w *worker) run(loop func()) {
	defer close(w.done)
	defer w.state.Store(int32(StateStopped))

	if w.pin {
		runtime.LockOSThread()
		if err := PinToCPU(w.cpu); err != nil {
			lg.FromContext(w.ctx).Warn("cpu pinning failed",
				lg.String("worker", w.id),
				lg.Int("cpu", w.cpu),
				lg.Any("error", err),
			)
		}
	}

	w.runHook(w.handler.OnStart)
	loop()
	w.runHook(w.handler.OnStop)
}

func (w *worker) runHook(hook func()) {
	defer func() {
		if r := recover(); r != nil {
			lg.FromContext(w.ctx).Error("worker hook panicked",
				lg.String("worker", w.id),
				lg.Any("panic", r),
			)
		}
	}()
	hook()
}

// processTask runs the handler on one task, toggling the idle flag
// around the execution. Errors and panics are reported and swallowed;
// with a retry policy the task is retried with backoff, where the
// backoff sleep is cut short by dismissal.
func (w *worker) processTask(task *Task) {
	w.idle.Store(false)
	defer w.idle.Store(true)
	defer func() {
		if r := recover(); r != nil {
			lg.FromContext(w.ctx).Error("task panicked",
				lg.String("worker", w.id),
				lg.Any("task", task.Payload),
				lg.Any("panic", r),
			)
		}
	}()

	if w.retry == nil {
		if err := w.handler.Process(task); err != nil {
			lg.FromContext(w.ctx).Error("task failed",
				lg.String("worker", w.id),
				lg.Any("task", task.Payload),
				lg.Any("error", err),
			)
		}
		return
	}

	logger := lg.FromContext(w.ctx).With(
		lg.String("worker", w.id),
		lg.Any("task", task.Payload),
	)
	bo := boff.New(w.retry.Initial, w.retry.Max, time.Now().UnixNano())

	for attempt := 1; ; attempt++ {
		err := w.handler.Process(task)
		if err == nil {
			return
		}
		if attempt >= w.retry.Attempts {
			logger.Error("task failed", lg.Int("attempt", attempt), lg.Any("error", err))
			return
		}
		delay := bo.Next()
		logger.Warn("task attempt failed; backing off",
			lg.Int("attempt", attempt),
			lg.String("sleep", delay.String()),
			lg.Any("error", err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-w.stop:
			if !timer.Stop() {
				<-timer.C
			}
			logger.Warn("dismissed during backoff; giving up on task",
				lg.Int("attempt", attempt))
			return
		}
	}
}
