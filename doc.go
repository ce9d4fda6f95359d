// Package pipeline provides building blocks for task-driven worker
// pipelines: prioritized task queues, managed background workers, and
// self-scaling worker teams.
//
// Roles
//
// The package models a pipeline as a small set of roles:
//
//   - Task: a unit of work with an opaque payload and a numeric
//     priority. Lower values are served first; equal priorities are
//     served in submission order.
//
//   - TaskQueue: a thread-safe priority queue of tasks with blocking
//     pop, optional bounded capacity, and live/peak/lifetime counters.
//
//   - Doer: a worker with a private task queue. The program pushes
//     tasks to the doer and the doer is responsible for finishing
//     every queued task before it is dismissed.
//
//   - Operator: a worker without a queue of its own. Operators are
//     bound to a shared queue, typically owned by a Team, and finish
//     only their in-flight task on dismissal.
//
//   - Controller: a named background supervisor running a cancellable
//     loop. Controllers are not task driven; they monitor and steer
//     the rest of the pipeline.
//
//   - Team: a shared TaskQueue, a pool of Operators, and a manager
//     Controller that grows and shrinks the pool to match the load.
//
//   - Pipeline: an ordered composition of the above, hired front to
//     back and dismissed back to front.
//
// Lifecycle
//
// Workers, controllers, teams, and pipelines share a hire/dismiss
// lifecycle. Hire starts the backing goroutine; Dismiss requests a
// stop, lets in-flight work finish, and blocks until the goroutine has
// terminated. Cancellation is cooperative: nothing is interrupted
// mid-task, so Dismiss can wait as long as the current task runs.
//
// A task that fails (error return or panic) is reported through the
// logger carried by the worker's context and the worker moves on to
// the next task. A single bad task never takes a worker down. Retries
// are opt-in per worker via RetryPolicy; by default a failed task is
// simply dropped after being reported.
//
// Scaling
//
// A Team's manager polls the queue and pool status on a fixed
// interval and adjusts the operator count one step at a time. The
// decision uses a dead band on the pool's idle rate, so a team under
// steady load does not oscillate:
//
//	shrink: idleRate > ShrinkThreshold, more idle operators than
//	        queued tasks, and more than MinOperators hired
//	grow:   idleRate < GrowThreshold, fewer idle operators than
//	        queued tasks, and fewer than MaxOperators hired
//
// Limits
//
// Queues are unbounded by default. Under sustained overload an
// unbounded queue grows without limit; callers that need backpressure
// should construct the queue with a maximum size, which makes Push
// block until space frees. Queued tasks are held in memory only and do
// not survive the process.
package pipeline
