package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxOperators bounds how far a team may scale up.
	DefaultMaxOperators = 50

	defaultPollInterval    = 100 * time.Millisecond
	defaultPopTimeout      = 50 * time.Millisecond
	defaultGrowThreshold   = 0.2
	defaultShrinkThreshold = 0.8
)

// WorkerOptions configure a Doer or Operator.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type WorkerOptions struct {
	// ID identifies the worker; generated when empty.
	ID string

	// Ctx carries the logger used for failure reporting. Defaults to
	// context.Background().
	Ctx context.Context

	// PopTimeout is the longest a worker blocks in a single queue pop.
	// It also bounds how stale a dismissal check can be: the worker
	// loop re-checks the stop signal at least once per PopTimeout.
	PopTimeout time.Duration

	// QueueSize bounds a Doer's private queue; 0 means unbounded.
	// Ignored by Operators, which pop from a shared queue.
	QueueSize int

	// Retry enables automatic retries of failed tasks. Nil disables
	// retries: a failed task is reported and dropped.
	Retry *RetryPolicy

	// Pin locks the worker goroutine to an OS thread and pins it to
	// CPU. Only effective on Linux.
	Pin bool
	CPU int
}

func (o *WorkerOptions) FillDefaults() {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = defaultPopTimeout
	}
	if o.QueueSize < 0 {
		o.QueueSize = 0
	}
	if o.Retry != nil {
		o.Retry.fillDefaults()
	}
}

// TeamOptions configure a Team and its manager's scaling policy.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type TeamOptions struct {
	// Name labels the team in log output; generated when empty.
	Name string

	// NewHandler produces one TaskHandler per hired operator.
	// Required.
	NewHandler func() TaskHandler

	// QueueSize bounds the shared task queue; 0 means unbounded.
	QueueSize int

	// InitialOperators is the number of operators hired up front.
	InitialOperators int

	// MinOperators and MaxOperators bound the pool size the manager
	// may scale to. The minimum of 1 guarantees forward progress.
	MinOperators int
	MaxOperators int

	// ScaleStep is how many operators are hired or dismissed per
	// manager tick.
	ScaleStep int

	// GrowThreshold and ShrinkThreshold delimit the idle-rate dead
	// band: the manager grows the pool below GrowThreshold and
	// shrinks it above ShrinkThreshold, and holds steady in between.
	GrowThreshold   float64
	ShrinkThreshold float64

	// PollInterval is the manager's tick period.
	PollInterval time.Duration

	// PopTimeout is passed to every hired operator.
	PopTimeout time.Duration

	// Retry is passed to every hired operator.
	Retry *RetryPolicy

	// Ctx carries the logger used by the team, its manager, and its
	// operators.
	Ctx context.Context
}

func (o *TeamOptions) FillDefaults() {
	if o.Name == "" {
		o.Name = "team-" + uuid.NewString()[:8]
	}
	if o.QueueSize < 0 {
		o.QueueSize = 0
	}
	if o.InitialOperators <= 0 {
		o.InitialOperators = 1
	}
	if o.MinOperators <= 0 {
		o.MinOperators = 1
	}
	if o.MaxOperators <= 0 {
		o.MaxOperators = DefaultMaxOperators
	}
	if o.MaxOperators < o.MinOperators {
		o.MaxOperators = o.MinOperators
	}
	if o.InitialOperators > o.MaxOperators {
		o.InitialOperators = o.MaxOperators
	}
	if o.ScaleStep <= 0 {
		o.ScaleStep = 1
	}
	if o.GrowThreshold <= 0 {
		o.GrowThreshold = defaultGrowThreshold
	}
	if o.ShrinkThreshold <= 0 {
		o.ShrinkThreshold = defaultShrinkThreshold
	}
	// The dead band must not invert.
	if o.ShrinkThreshold < o.GrowThreshold {
		o.ShrinkThreshold = o.GrowThreshold
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = defaultPopTimeout
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Retry != nil {
		o.Retry.fillDefaults()
	}
}
