package pipeline

// Operator is a task-driven worker without a queue of its own. It is
// bound to an externally supplied queue, typically the shared queue
// of a Team, and competes with its peers for tasks.
//
// Unlike a Doer, a dismissed operator finishes only its in-flight
// task; draining the shared queue is the owning team's concern.
type Operator struct {
	worker
	queue *TaskQueue
}

// NewOperator creates an unbound operator. Bind must be called before
// Hire.
func NewOperator(handler TaskHandler, opts WorkerOptions) (*Operator, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	opts.FillDefaults()
	o := &Operator{}
	initWorker(&o.worker, handler, opts)
	return o, nil
}

// Bind attaches the operator to the queue it pops from.
func (o *Operator) Bind(q *TaskQueue) { o.queue = q }

// Hire starts the operator's goroutine. Hiring an unbound operator
// returns ErrNotBound; hiring twice returns ErrAlreadyHired.
func (o *Operator) Hire() error {
	if o.queue == nil {
		return ErrNotBound
	}
	return o.hire(o.loop)
}

// Dismiss stops the operator and blocks until its goroutine has
// terminated, letting the in-flight task complete.
func (o *Operator) Dismiss() error { return o.dismiss() }

func (o *Operator) loop() {
	for {
		if task, ok := o.queue.Pop(o.popTimeout); ok {
			o.processTask(task)
		}
		select {
		case <-o.stop:
			return
		default:
		}
	}
}
