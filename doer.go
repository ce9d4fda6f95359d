package pipeline

// Doer is a task-driven worker with a private task queue.
//
// The program pushes tasks to the doer and the doer works through
// them in priority order. A doer is responsible for its whole queue:
// dismissal flushes every queued task before the worker stops, so no
// pushed task is lost.
type Doer struct {
	worker
	queue *TaskQueue
}

// NewDoer creates a doer with its own queue, sized by
// opts.QueueSize.
func NewDoer(handler TaskHandler, opts WorkerOptions) (*Doer, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	opts.FillDefaults()
	d := &Doer{queue: NewTaskQueue(opts.QueueSize)}
	initWorker(&d.worker, handler, opts)
	return d, nil
}

// Queue exposes the doer's private queue, e.g. for status polling.
func (d *Doer) Queue() *TaskQueue { return d.queue }

// Push submits a payload at DefaultPriority.
func (d *Doer) Push(payload any) error { return d.queue.Push(payload) }

// PushPriority submits a payload with an explicit priority.
func (d *Doer) PushPriority(payload any, priority int) error {
	return d.queue.PushPriority(payload, priority)
}

// Hire starts the doer's goroutine. Hiring twice returns
// ErrAlreadyHired.
func (d *Doer) Hire() error { return d.hire(d.loop) }

// Dismiss stops the doer and blocks until its goroutine has
// terminated. The private queue is drained first and closed
// afterwards, so late pushes fail with ErrQueueClosed instead of
// silently piling up.
func (d *Doer) Dismiss() error {
	if err := d.dismiss(); err != nil {
		return err
	}
	d.queue.Close()
	return nil
}

func (d *Doer) loop() {
	stopping := false
	for {
		d.flush()
		if stopping {
			return
		}
		select {
		case <-d.stop:
			// One final flush pass so tasks pushed just before the
			// stop signal are still processed.
			stopping = true
		default:
			if task, ok := d.queue.Pop(d.popTimeout); ok {
				d.processTask(task)
			}
		}
	}
}

// flush processes every immediately available task.
func (d *Doer) flush() {
	for {
		task, ok := d.queue.Pop(0)
		if !ok {
			return
		}
		d.processTask(task)
	}
}
