package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	lg "github.com/Andrej220/go-utils/zlog"
)

// ControlFunc is the body of a controller. It must watch ctx and
// return promptly once the context is cancelled; the framework never
// interrupts it by force.
type ControlFunc func(ctx context.Context)

// Controller is a named background supervisor. It is not task driven:
// it runs a single cancellable function in its own goroutine,
// typically a periodic loop that monitors and steers other parts of
// the pipeline.
type Controller struct {
	name   string
	fn     ControlFunc
	base   context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state atomic.Int32
	done  chan struct{}
}

// NewController creates a controller running fn once hired. ctx
// carries the logger and is the parent of the loop context; nil means
// context.Background().
func NewController(ctx context.Context, name string, fn ControlFunc) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Controller{
		name: name,
		fn:   fn,
		base: ctx,
		done: make(chan struct{}),
	}
}

// Name returns the controller's name.
func (c *Controller) Name() string { return c.name }

// ID returns the controller's name; it doubles as the pool member
// identifier.
func (c *Controller) ID() string { return c.name }

// IsIdle always reports false: a controller is considered busy for
// its whole lifetime.
func (c *Controller) IsIdle() bool { return false }

// State returns the controller's lifecycle state.
func (c *Controller) State() WorkerState { return WorkerState(c.state.Load()) }

// Hire starts the controller's goroutine. Hiring twice returns
// ErrAlreadyHired.
func (c *Controller) Hire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return ErrAlreadyHired
	}
	runCtx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	go c.run(runCtx)
	return nil
}

// Dismiss cancels the controller's context and blocks until its
// goroutine has terminated.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested)) {
		c.mu.Unlock()
		return ErrNotHired
	}
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	<-c.done
	return nil
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	defer c.state.Store(int32(StateStopped))
	defer func() {
		if r := recover(); r != nil {
			lg.FromContext(c.base).Error("controller panicked",
				lg.String("controller", c.name),
				lg.Any("panic", r),
			)
		}
	}()
	c.fn(ctx)
}
