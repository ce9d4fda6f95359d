package pipeline

// TaskHandler supplies the behavior of a task-driven worker.
//
// OnStart runs once in the worker goroutine before the first pop,
// OnStop once after the loop has ended. Process runs once per popped
// task. An error or panic from Process is reported and the worker
// continues with the next task; returning an error never stops the
// worker.
type TaskHandler interface {
	OnStart()
	Process(task *Task) error
	OnStop()
}

// ProcessFunc adapts a plain function to a TaskHandler with no-op
// start and stop hooks.
type ProcessFunc func(task *Task) error

func (f ProcessFunc) OnStart()                 {}
func (f ProcessFunc) Process(task *Task) error { return f(task) }
func (f ProcessFunc) OnStop()                  {}
