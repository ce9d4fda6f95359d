package pipeline

import "errors"

var (
	// ErrQueueClosed is returned when pushing to a queue that has
	// been closed.
	ErrQueueClosed = errors.New("pipeline: queue is closed")

	// ErrAlreadyHired is returned when Hire is called on a worker or
	// controller that is already running or has already been stopped.
	ErrAlreadyHired = errors.New("pipeline: already hired")

	// ErrNotHired is returned when Dismiss is called on a worker or
	// controller that is not running.
	ErrNotHired = errors.New("pipeline: not hired")

	// ErrNotBound is returned when an operator is hired without a
	// task queue bound to it.
	ErrNotBound = errors.New("pipeline: operator is not bound to a queue")

	// ErrNilHandler is returned when a worker is constructed without
	// a task handler.
	ErrNilHandler = errors.New("pipeline: task handler is nil")

	// ErrNoHandlerFactory is returned when a team has no handler
	// factory to hire operators with.
	ErrNoHandlerFactory = errors.New("pipeline: team has no handler factory")
)
